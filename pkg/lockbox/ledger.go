package lockbox

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/valory-xyz/legacy-lockbox-solana/pkg"
)

// ConsumptionPolicy selects the order withdrawals consume positions in.
type ConsumptionPolicy int

const (
	// OldestFirst consumes the earliest-deposited positions first, keeping
	// record ids contiguous from the low end.
	OldestFirst ConsumptionPolicy = iota

	// NewestFirst consumes the latest-deposited positions first.
	NewestFirst
)

func (p ConsumptionPolicy) String() string {
	switch p {
	case OldestFirst:
		return "oldest-first"
	case NewestFirst:
		return "newest-first"
	default:
		return fmt.Sprintf("ConsumptionPolicy(%d)", int(p))
	}
}

// BridgedTokenDecimals matches the OLAS-family bridged token mints.
const BridgedTokenDecimals = 8

// PositionRecord is one locked position tracked by the ledger. Liquidity is
// the portion still backing bridged tokens; it only moves down as
// withdrawals consume the record.
type PositionRecord struct {
	ID             uint32
	Position       solana.PublicKey
	PositionMint   solana.PublicKey
	CustodyAccount solana.PublicKey
	TickLowerIndex int32
	TickUpperIndex int32
	Liquidity      uint64
}

// Allocation is one step of a withdrawal plan: take Amount liquidity from
// the given position. Exhausts marks the record hitting zero, after which
// the position is closed and its storage reclaimed.
type Allocation struct {
	PositionID uint32
	Position   solana.PublicKey
	Amount     uint64
	Exhausts   bool
}

// Lockbox is the liquidity ledger and lifecycle engine. It tracks deposited
// positions in insertion order, keeps total liquidity equal to the bridged
// token supply, and drives the cross-protocol calls for deposits and
// withdrawals through the injected AMMPool and TokenIssuer.
//
// All exported methods are safe for concurrent use; a single mutex
// serializes operations so each one is all-or-nothing against the ledger.
type Lockbox struct {
	mu sync.Mutex

	bridgedMint solana.PublicKey
	decimals    uint8
	policy      ConsumptionPolicy

	pool   pkg.AMMPool
	issuer pkg.TokenIssuer
	log    *zap.Logger

	records        []*PositionRecord
	nextID         uint32
	totalLiquidity uint64
}

// Option configures a Lockbox at construction.
type Option func(*Lockbox)

// WithPolicy sets the withdrawal consumption order. Default OldestFirst.
func WithPolicy(policy ConsumptionPolicy) Option {
	return func(lb *Lockbox) { lb.policy = policy }
}

// WithLogger injects a structured logger. Default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(lb *Lockbox) { lb.log = log }
}

// WithDecimals overrides the bridged token decimals used in burn
// instructions. Default BridgedTokenDecimals.
func WithDecimals(decimals uint8) Option {
	return func(lb *Lockbox) { lb.decimals = decimals }
}

// New creates an empty lockbox for the given bridged token mint.
func New(bridgedMint solana.PublicKey, pool pkg.AMMPool, issuer pkg.TokenIssuer, opts ...Option) *Lockbox {
	lb := &Lockbox{
		bridgedMint: bridgedMint,
		decimals:    BridgedTokenDecimals,
		policy:      OldestFirst,
		pool:        pool,
		issuer:      issuer,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(lb)
	}
	return lb
}

// BridgedMint returns the bridged token mint address.
func (lb *Lockbox) BridgedMint() solana.PublicKey {
	return lb.bridgedMint
}

// Policy returns the configured consumption order.
func (lb *Lockbox) Policy() ConsumptionPolicy {
	return lb.policy
}

// TotalLiquidity returns the aggregate liquidity across active records. By
// construction it equals the bridged token supply minted through this
// lockbox.
func (lb *Lockbox) TotalLiquidity() uint64 {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.totalLiquidity
}

// Len returns the number of active position records.
func (lb *Lockbox) Len() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return len(lb.records)
}

// Record returns a copy of the record with the given id.
func (lb *Lockbox) Record(id uint32) (PositionRecord, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	for _, rec := range lb.records {
		if rec.ID == id {
			return *rec, nil
		}
	}
	return PositionRecord{}, fmt.Errorf("%w: %d", ErrUnknownPosition, id)
}

// Records returns a snapshot of all active records in insertion order.
func (lb *Lockbox) Records() []PositionRecord {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	out := make([]PositionRecord, len(lb.records))
	for i, rec := range lb.records {
		out[i] = *rec
	}
	return out
}

// findRecord returns the record tracking the given position account, or nil.
// Caller holds lb.mu.
func (lb *Lockbox) findRecord(position solana.PublicKey) *PositionRecord {
	for _, rec := range lb.records {
		if rec.Position.Equals(position) {
			return rec
		}
	}
	return nil
}

// plan computes the withdrawal allocation for amount without mutating
// anything. Records are consumed in policy order; the last selected record
// is clipped to the remainder. Caller holds lb.mu.
func (lb *Lockbox) plan(amount uint64) ([]Allocation, error) {
	if amount == 0 {
		return nil, ErrLiquidityZero
	}
	if amount > lb.totalLiquidity {
		return nil, fmt.Errorf("%w: requested %d, locked %d", ErrAmountExceedsTotalLiquidity, amount, lb.totalLiquidity)
	}

	var allocations []Allocation
	remaining := amount
	for i := 0; i < len(lb.records) && remaining > 0; i++ {
		rec := lb.records[i]
		if lb.policy == NewestFirst {
			rec = lb.records[len(lb.records)-1-i]
		}
		if rec.Liquidity == 0 {
			continue
		}
		take := remaining
		if take > rec.Liquidity {
			take = rec.Liquidity
		}
		allocations = append(allocations, Allocation{
			PositionID: rec.ID,
			Position:   rec.Position,
			Amount:     take,
			Exhausts:   take == rec.Liquidity,
		})
		remaining -= take
	}
	if remaining > 0 {
		// totalLiquidity was checked above, so the records must not sum up.
		return nil, fmt.Errorf("%w: %d liquidity unallocated", ErrLiquidityUnderflow, remaining)
	}
	return allocations, nil
}

// QueryAllocation reports which positions a withdrawal of amount would
// consume, and by how much, without performing it. The result matches what
// an immediately following Withdraw of the same amount would do.
func (lb *Lockbox) QueryAllocation(amount uint64) ([]Allocation, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.plan(amount)
}

// checkedAdd adds delta to total, failing on 64-bit wrap.
func checkedAdd(total, delta uint64) (uint64, error) {
	sum := total + delta
	if sum < total {
		return 0, fmt.Errorf("%w: %d + %d", ErrLiquidityOverflow, total, delta)
	}
	return sum, nil
}

// checkedSub subtracts delta from total, failing on wrap below zero.
func checkedSub(total, delta uint64) (uint64, error) {
	if delta > total {
		return 0, fmt.Errorf("%w: %d - %d", ErrLiquidityUnderflow, total, delta)
	}
	return total - delta, nil
}

// debugChecks enables the aggregate invariant check after every mutation.
// Enabled by tests.
var debugChecks = false

// checkInvariant asserts totalLiquidity equals the sum over active records.
// Caller holds lb.mu.
func (lb *Lockbox) checkInvariant() {
	if !debugChecks {
		return
	}
	var sum uint64
	for _, rec := range lb.records {
		sum += rec.Liquidity
	}
	if sum != lb.totalLiquidity {
		panic(fmt.Sprintf("lockbox ledger invariant violated: records sum %d, total %d", sum, lb.totalLiquidity))
	}
}
