// Package bypass arbitrates the scarce browser-automation slots used to
// clear store challenges. A fixed pool of doors bounds how many browser
// sessions run at once; waiting tasks sit in a FIFO queue and poll shared
// state on a fixed interval. A task leaves the queue either with cookies
// another task produced for its proxy group, or with permission to run the
// browser itself.
package bypass
