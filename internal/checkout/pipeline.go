package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
	"github.com/danniel-isiah-libor/talos-io/internal/platform/titan"
	"github.com/danniel-isiah-libor/talos-io/internal/store"
)

// placeOrderAttempts is the one bounded retry in the pipeline: order
// submission gets exactly this many tries before the run restarts from
// authentication to chase a restock.
const placeOrderAttempts = 2

// ShopClient is the slice of the store API the pipeline drives. Every call
// reduces to a titan.Outcome; the pipeline never sees HTTP detail.
type ShopClient interface {
	Authenticate(ctx context.Context, email, password string) (string, titan.Outcome)
	FetchProfile(ctx context.Context, token string) (*domain.CustomerProfile, titan.Outcome)
	CreateCart(ctx context.Context, token string) (string, titan.Outcome)
	GetCart(ctx context.Context, token string) (*titan.Cart, titan.Outcome)
	DeleteCartItem(ctx context.Context, token string, itemID int) titan.Outcome
	AddCartItem(ctx context.Context, token, quoteID, sku string, size domain.SizeOption) (*titan.CartItem, titan.Outcome)
	EstimateShipping(ctx context.Context, token string, addressID int) ([]titan.ShippingEstimate, titan.Outcome)
	SetShippingInformation(ctx context.Context, token string, info titan.ShippingInformation) (*titan.PaymentInformation, titan.Outcome)
	PlaceOrder(ctx context.Context, token string, payload titan.OrderPayload) (*titan.OrderResult, titan.Outcome)
}

// SuccessNotification carries everything the success collaborators need once
// an order goes through.
type SuccessNotification struct {
	Task        domain.Task
	Product     domain.CartedProduct
	ProductName string
	ProfileName string
	Seconds     string
	Cookie      domain.Cookie
}

// Notifier delivers success notifications. Fire and forget: failures must
// never affect task state.
type Notifier interface {
	NotifySuccess(ctx context.Context, n SuccessNotification)
}

// CheckoutWindow opens the interactive payment window with the gateway
// session cookie. It runs out of process; completion comes back through the
// control channel.
type CheckoutWindow interface {
	Launch(ctx context.Context, cookie domain.Cookie, product domain.CartedProduct)
}

// Pipeline sequences the eight checkout stages for one task. All state it
// derives (token, profile, cart, carted item) lives on the task's
// transaction data in the registry, so a restart rebuilds from whatever the
// restart policy left there.
type Pipeline struct {
	registry store.TaskRegistry
	client   ShopClient
	retry    *RetryLoop
	gate     *Gate
	clock    Clock
	logger   *slog.Logger

	notifier Notifier
	window   CheckoutWindow

	// freeShippingThreshold is the item price above which shipping is not
	// estimated and the free-shipping code is used directly.
	freeShippingThreshold float64

	// onSuccess, when set, observes every placed order. Used for metrics.
	onSuccess func()
}

// PipelineOptions configures optional pipeline collaborators.
type PipelineOptions struct {
	Notifier              Notifier
	Window                CheckoutWindow
	FreeShippingThreshold float64
	OnSuccess             func()
}

// NewPipeline wires a pipeline over the registry and store client.
func NewPipeline(registry store.TaskRegistry, client ShopClient, clock Clock, log *slog.Logger, opts PipelineOptions) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	threshold := opts.FreeShippingThreshold
	if threshold <= 0 {
		threshold = 5000
	}
	return &Pipeline{
		registry:              registry,
		client:                client,
		retry:                 NewRetryLoop(registry, clock, log),
		gate:                  NewGate(registry, clock, log),
		clock:                 clock,
		logger:                log.With("component", "checkout_pipeline"),
		notifier:              opts.Notifier,
		window:                opts.Window,
		freeShippingThreshold: threshold,
		onSuccess:             opts.OnSuccess,
	}
}

// runOutcome is how one full pass through the pipeline ended.
type runOutcome int

const (
	runDone runOutcome = iota
	runRestart
)

// Run drives the task until it succeeds or is stopped. It loops on the two
// restart edges: authorization loss (transaction data cleared) and order
// submission exhaustion (transaction data discarded, restock attempt).
func (p *Pipeline) Run(ctx context.Context, taskID uuid.UUID) {
	log := p.logger.With("task_id", taskID)

	for {
		if out := p.runOnce(ctx, taskID, log); out != runRestart {
			return
		}
	}
}

// runOnce executes one pass through all eight stages.
func (p *Pipeline) runOnce(ctx context.Context, taskID uuid.UUID, log *slog.Logger) runOutcome {
	task, err := p.registry.Find(taskID)
	if err != nil {
		return runDone
	}
	delay := task.Delay

	token, res := p.authenticate(ctx, task)
	if out, done := p.checkStage(taskID, res, log, "authenticate"); done {
		return out
	}

	user, res := p.fetchProfile(ctx, taskID, delay, token)
	if out, done := p.checkStage(taskID, res, log, "fetch_profile"); done {
		return out
	}

	res = p.createCart(ctx, taskID, delay, token)
	if out, done := p.checkStage(taskID, res, log, "create_cart"); done {
		return out
	}

	cart, res := p.fetchCart(ctx, taskID, delay, token)
	if out, done := p.checkStage(taskID, res, log, "fetch_cart"); done {
		return out
	}

	res = p.cleanCart(ctx, taskID, delay, token, cart)
	if out, done := p.checkStage(taskID, res, log, "clean_cart"); done {
		return out
	}

	product, res := p.addItem(ctx, taskID, delay, token, cart)
	if out, done := p.checkStage(taskID, res, log, "add_item"); done {
		return out
	}

	payment, res := p.setShipping(ctx, taskID, delay, token, user, product)
	if out, done := p.checkStage(taskID, res, log, "set_shipping"); done {
		return out
	}

	return p.placeOrder(ctx, taskID, token, user, cart, product, payment)
}

// checkStage folds a stage's LoopResult into the run control flow.
// Unauthorized clears transaction data and restarts; stopped ends the run.
func (p *Pipeline) checkStage(taskID uuid.UUID, res LoopResult, log *slog.Logger, stage string) (runOutcome, bool) {
	switch res {
	case LoopStopped:
		return runDone, true
	case LoopUnauthorized:
		log.Info("authorization lost, restarting pipeline", "stage", stage)
		p.clearTransactionData(taskID)
		return runRestart, true
	default:
		return runDone, false
	}
}

// clearTransactionData wipes the task's accumulated transaction state so a
// restart never reuses a stale token.
func (p *Pipeline) clearTransactionData(taskID uuid.UUID) {
	task, err := p.registry.Find(taskID)
	if err != nil {
		return
	}
	task.TransactionData = domain.TransactionData{}
	_ = p.registry.Replace(task)
}

// authenticate resolves the customer token. A token already present on the
// task is reused; authorization loss elsewhere clears it first, so a stale
// token can never reach this fast path.
func (p *Pipeline) authenticate(ctx context.Context, task domain.Task) (string, LoopResult) {
	if existing := task.TransactionData.Token; existing != "" {
		p.retry.Log(task.ID, "reusing session token", domain.SeverityInfo)
		return existing, LoopSuccess
	}

	var token string
	res := p.retry.Run(ctx, task.ID, task.Delay, StageMessages{
		Status:  "authenticating",
		Trying:  "logging in...",
		Success: "logged in",
		Failure: "failed to login",
	}, func(ctx context.Context) titan.Outcome {
		fetched, out := p.client.Authenticate(ctx, task.Profile.Email, task.Profile.Password)
		if out == titan.Success {
			token = fetched
		}
		return out
	})

	if res == LoopSuccess {
		p.mutateTransaction(task.ID, func(td *domain.TransactionData) {
			td.Token = token
		})
	}
	return token, res
}

// fetchProfile loads the customer account. The stage only succeeds when the
// profile carries at least one address; shipping cannot be derived otherwise.
func (p *Pipeline) fetchProfile(ctx context.Context, taskID uuid.UUID, delay time.Duration, token string) (*domain.CustomerProfile, LoopResult) {
	var user *domain.CustomerProfile
	res := p.retry.Run(ctx, taskID, delay, StageMessages{
		Status:  "fetching profile",
		Trying:  "fetching profile...",
		Success: "profile has been fetched",
		Failure: "failed to fetch profile",
	}, func(ctx context.Context) titan.Outcome {
		fetched, out := p.client.FetchProfile(ctx, token)
		if out != titan.Success {
			return out
		}
		if len(fetched.Addresses) == 0 {
			return titan.Failure
		}
		user = fetched
		return titan.Success
	})

	if res == LoopSuccess {
		p.mutateTransaction(taskID, func(td *domain.TransactionData) {
			profile := user.Clone()
			td.User = &profile
		})
	}
	return user, res
}

func (p *Pipeline) createCart(ctx context.Context, taskID uuid.UUID, delay time.Duration, token string) LoopResult {
	return p.retry.Run(ctx, taskID, delay, StageMessages{
		Status:  "creating cart",
		Trying:  "creating cart...",
		Success: "cart has been created",
		Failure: "failed to create cart",
	}, func(ctx context.Context) titan.Outcome {
		_, out := p.client.CreateCart(ctx, token)
		return out
	})
}

func (p *Pipeline) fetchCart(ctx context.Context, taskID uuid.UUID, delay time.Duration, token string) (*titan.Cart, LoopResult) {
	var cart *titan.Cart
	res := p.retry.Run(ctx, taskID, delay, StageMessages{
		Status:  "fetching cart",
		Trying:  "fetching cart...",
		Success: "cart has been fetched",
		Failure: "failed to fetch cart",
	}, func(ctx context.Context) titan.Outcome {
		fetched, out := p.client.GetCart(ctx, token)
		if out == titan.Success {
			cart = fetched
		}
		return out
	})
	return cart, res
}

// cleanCart deletes every existing cart item. A single failed deletion in a
// pass forces a full re-pass over all items, not just the failed one; the
// stage only completes when every deletion in one pass succeeded.
func (p *Pipeline) cleanCart(ctx context.Context, taskID uuid.UUID, delay time.Duration, token string, cart *titan.Cart) LoopResult {
	if len(cart.Items) == 0 {
		return LoopSuccess
	}

	for {
		if !p.retry.Running(ctx, taskID) {
			p.retry.MarkStopped(taskID)
			return LoopStopped
		}

		allDeleted := true
		for _, item := range cart.Items {
			if !p.retry.Running(ctx, taskID) {
				p.retry.MarkStopped(taskID)
				return LoopStopped
			}

			p.retry.Sleep(ctx, delay)

			if !p.retry.Running(ctx, taskID) {
				p.retry.MarkStopped(taskID)
				return LoopStopped
			}

			p.retry.SetBusy(taskID, "cleaning cart")
			p.retry.Log(taskID, "cleaning cart...", domain.SeverityWarning)

			itemID := item.ItemID
			outcome := p.retry.Invoke(ctx, func(ctx context.Context) titan.Outcome {
				return p.client.DeleteCartItem(ctx, token, itemID)
			})

			if !p.retry.Running(ctx, taskID) {
				p.retry.MarkStopped(taskID)
				return LoopStopped
			}

			switch outcome {
			case titan.Success:
				p.retry.Log(taskID, "item removed from cart", domain.SeveritySuccess)
			case titan.Unauthorized:
				p.retry.Log(taskID, "user token expired", domain.SeverityError)
				return LoopUnauthorized
			default:
				p.retry.Log(taskID, "failed to delete item", domain.SeverityError)
				allDeleted = false
			}
		}

		if allDeleted {
			return LoopSuccess
		}
	}
}

// addItem walks the task's size list in order; the first size that carts
// wins the pass. A pass where every size fails is retried from the first
// size.
func (p *Pipeline) addItem(ctx context.Context, taskID uuid.UUID, delay time.Duration, token string, cart *titan.Cart) (*domain.CartedProduct, LoopResult) {
	task, err := p.registry.Find(taskID)
	if err != nil {
		return nil, LoopStopped
	}
	quoteID := strconv.Itoa(cart.ID)

	for {
		if !p.retry.Running(ctx, taskID) {
			p.retry.MarkStopped(taskID)
			return nil, LoopStopped
		}

		for _, size := range task.Sizes {
			if !p.retry.Running(ctx, taskID) {
				p.retry.MarkStopped(taskID)
				return nil, LoopStopped
			}

			p.retry.Sleep(ctx, delay)

			if !p.retry.Running(ctx, taskID) {
				p.retry.MarkStopped(taskID)
				return nil, LoopStopped
			}

			p.retry.SetBusy(taskID, "size: "+size.Label+" - trying")
			p.retry.Log(taskID, "trying to cart size: "+size.Label+"...", domain.SeverityWarning)

			size := size
			var item *titan.CartItem
			outcome := p.retry.Invoke(ctx, func(ctx context.Context) titan.Outcome {
				added, out := p.client.AddCartItem(ctx, token, quoteID, task.Sku, size)
				if out == titan.Success {
					item = added
				}
				return out
			})

			if !p.retry.Running(ctx, taskID) {
				p.retry.MarkStopped(taskID)
				return nil, LoopStopped
			}

			switch outcome {
			case titan.Success:
				p.retry.SetBusy(taskID, "size: "+size.Label+" - carted")
				p.retry.Log(taskID, "size: "+size.Label+" has been carted", domain.SeveritySuccess)
				return &domain.CartedProduct{
					ItemID:    item.ItemID,
					Sku:       item.Sku,
					Name:      item.Name,
					Price:     item.Price,
					Qty:       item.Qty,
					QuoteID:   quoteID,
					SizeLabel: size.Label,
				}, LoopSuccess
			case titan.Unauthorized:
				p.retry.Log(taskID, "user token expired", domain.SeverityError)
				return nil, LoopUnauthorized
			default:
				p.retry.Log(taskID, "failed to cart size: "+size.Label, domain.SeverityError)
			}
		}
	}
}

// setShipping resolves a shipping method and submits the shipping and
// billing addresses. Estimation happens only for items at or under the
// free-shipping threshold; above it the free-shipping code is used directly.
// The stage succeeds once the store answers with a non-empty payment-methods
// list.
func (p *Pipeline) setShipping(ctx context.Context, taskID uuid.UUID, delay time.Duration, token string, user *domain.CustomerProfile, product *domain.CartedProduct) (*titan.PaymentInformation, LoopResult) {
	shippingAddr := shippingAddress(user)
	billingAddr := billingAddress(user)

	carrier, method := "freeshipping", "freeshipping"
	if product.Price <= p.freeShippingThreshold {
		var estimate titan.ShippingEstimate
		res := p.retry.Run(ctx, taskID, delay, StageMessages{
			Status:  "estimate shipping",
			Trying:  "estimating shipping...",
			Success: "shipping has been estimated",
			Failure: "failed to estimate shipping",
		}, func(ctx context.Context) titan.Outcome {
			estimates, out := p.client.EstimateShipping(ctx, token, shippingAddr.ID)
			if out != titan.Success {
				return out
			}
			if len(estimates) == 0 {
				return titan.Failure
			}
			estimate = estimates[0]
			return titan.Success
		})
		if res != LoopSuccess {
			return nil, res
		}
		carrier, method = estimate.CarrierCode, estimate.MethodCode
	}

	info := titan.ShippingInformation{
		AddressInformation: titan.AddressInformation{
			ShippingAddress:     titan.NewAddressPayload(shippingAddr, user.Email),
			BillingAddress:      titan.NewAddressPayload(billingAddr, user.Email),
			ShippingCarrierCode: carrier,
			ShippingMethodCode:  method,
		},
	}

	var payment *titan.PaymentInformation
	res := p.retry.Run(ctx, taskID, delay, StageMessages{
		Status:  "set shipping info",
		Trying:  "setting shipping details...",
		Success: "shipping details has been set",
		Failure: "failed to set shipping details",
	}, func(ctx context.Context) titan.Outcome {
		set, out := p.client.SetShippingInformation(ctx, token, info)
		if out != titan.Success {
			return out
		}
		if len(set.PaymentMethods) == 0 {
			return titan.Failure
		}
		payment = set
		return titan.Success
	})
	return payment, res
}

// placeOrder waits out the scheduled gate then submits the order, twice at
// most. Exhausting both attempts restarts the pipeline from authentication
// with transaction data discarded, chasing a restock from scratch.
func (p *Pipeline) placeOrder(ctx context.Context, taskID uuid.UUID, token string, user *domain.CustomerProfile, cart *titan.Cart, product *domain.CartedProduct, payment *titan.PaymentInformation) runOutcome {
	p.retry.SetBusy(taskID, "size: "+product.SizeLabel+" - waiting to place order")

	if !p.gate.Wait(ctx, taskID) {
		return runDone
	}

	billingAddr := billingAddress(user)
	payload := titan.OrderPayload{
		Amcheckout:     map[string]any{},
		BillingAddress: titan.NewAddressPayload(billingAddr, user.Email),
		CartID:         strconv.Itoa(cart.ID),
		PaymentMethod: titan.PaymentSelection{
			Method: payment.PaymentMethods[0].Code,
		},
	}

	p.retry.SetBusy(taskID, "size: "+product.SizeLabel+" - placing order")

	for attempt := 1; attempt <= placeOrderAttempts; attempt++ {
		if !p.retry.Running(ctx, taskID) {
			p.retry.MarkStopped(taskID)
			return runDone
		}

		p.retry.Log(taskID, "placing order...", domain.SeverityWarning)

		started := p.clock.Now()
		var result *titan.OrderResult
		outcome := p.retry.Invoke(ctx, func(ctx context.Context) titan.Outcome {
			placed, out := p.client.PlaceOrder(ctx, token, payload)
			if out == titan.Success {
				result = placed
			}
			return out
		})
		elapsed := p.clock.Now().Sub(started)

		if outcome == titan.Success && p.retry.Running(ctx, taskID) {
			p.retry.Log(taskID, "order has been placed", domain.SeveritySuccess)
			p.succeed(ctx, taskID, product, payment, result, elapsed)
			return runDone
		}

		if !p.retry.Running(ctx, taskID) {
			p.retry.MarkStopped(taskID)
			return runDone
		}

		if attempt == placeOrderAttempts {
			p.retry.Log(taskID, "trying for restock...", domain.SeverityWarning)
			p.clearTransactionData(taskID)
			return runRestart
		}

		p.retry.Log(taskID, "out of stock", domain.SeverityError)
	}

	return runDone
}

// succeed records the terminal succeeded state, merges the order result into
// the task's transaction data and fans out to the success collaborators.
func (p *Pipeline) succeed(ctx context.Context, taskID uuid.UUID, product *domain.CartedProduct, payment *titan.PaymentInformation, result *titan.OrderResult, elapsed time.Duration) {
	seconds := fmt.Sprintf("%.2f", elapsed.Seconds())

	task, err := p.registry.Find(taskID)
	if err != nil {
		return
	}

	task.Status = domain.Status{ID: domain.StatusSucceeded, Message: "copped!", Class: domain.StyleSuccess}
	task.Logs = append(task.Logs, domain.LogEntry{Message: "proceed to checkout", Severity: domain.SeveritySuccess})
	cookie := result.Cookie
	orderCopy := *product
	task.TransactionData.Cookie = &cookie
	task.TransactionData.Fields = result.Fields
	task.TransactionData.Time = seconds
	task.TransactionData.Order = &orderCopy
	if err := p.registry.Replace(task); err != nil {
		p.logger.Warn("failed to persist order result", "task_id", taskID, "error", err)
	}

	if p.onSuccess != nil {
		p.onSuccess()
	}

	productName := product.Name
	if len(payment.Totals.Items) > 0 {
		productName = payment.Totals.Items[0].Name
	}

	if p.notifier != nil {
		p.notifier.NotifySuccess(ctx, SuccessNotification{
			Task:        task,
			Product:     *product,
			ProductName: productName,
			ProfileName: task.Profile.Name,
			Seconds:     seconds,
			Cookie:      result.Cookie,
		})
	}

	if p.window != nil && !task.AutoCheckout {
		p.window.Launch(ctx, result.Cookie, *product)
	}
}

// mutateTransaction applies fn to the task's transaction data through a
// read-modify-replace on the registry.
func (p *Pipeline) mutateTransaction(taskID uuid.UUID, fn func(*domain.TransactionData)) {
	task, err := p.registry.Find(taskID)
	if err != nil {
		return
	}
	fn(&task.TransactionData)
	_ = p.registry.Replace(task)
}

// shippingAddress returns the profile's default shipping address, falling
// back to the first one. Callers only reach this after the profile stage
// guaranteed a non-empty address list.
func shippingAddress(user *domain.CustomerProfile) domain.Address {
	if addr, ok := user.DefaultShipping(); ok {
		return addr
	}
	return user.Addresses[0]
}

// billingAddress mirrors shippingAddress for the billing default.
func billingAddress(user *domain.CustomerProfile) domain.Address {
	if addr, ok := user.DefaultBilling(); ok {
		return addr
	}
	return user.Addresses[0]
}
