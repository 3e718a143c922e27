package txn_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/ardanlabs/staking/business/chain"
	"github.com/ardanlabs/staking/business/core/txn"
	"github.com/ardanlabs/staking/business/sys/keys"
	"github.com/ardanlabs/staking/business/sys/sdktx"
	"github.com/ardanlabs/staking/foundation/wallet"
	stakingtypes "github.com/cosmos/cosmos-sdk/x/staking/types"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	mnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	sender   = "cosmos19rl4cm2hmr8afy4kldpxz3fka4jguq0auqdal4"
	acc1     = "cosmos1k397mjcaqvzh9p65vfept60kk0dj8ka6dhv6h9"
	val1     = "cosmosvaloper1esweepj7swqv94txm3eyce3kjpg6e74rddmu2y"
	val2     = "cosmosvaloper122899y8clu8tqvjlq3etnsdfaa86czczkyldjj"
)

// =============================================================================

type querier struct {
	balances   chain.Coins
	validators map[string]chain.Validator
	queries    atomic.Int32
}

func (q *querier) Balances(ctx context.Context, address string) (chain.Coins, error) {
	q.queries.Add(1)
	return q.balances, nil
}

func (q *querier) Validators(ctx context.Context, status chain.BondStatus) ([]chain.Validator, error) {
	q.queries.Add(1)
	var vals []chain.Validator
	for _, v := range q.validators {
		vals = append(vals, v)
	}
	chain.SortByTokens(vals)
	return vals, nil
}

func (q *querier) Validator(ctx context.Context, address string) (chain.Validator, error) {
	q.queries.Add(1)
	v, exists := q.validators[address]
	if !exists {
		return chain.Validator{}, &chain.ValidatorNotFoundError{Address: address}
	}
	return v, nil
}

func (q *querier) Delegation(ctx context.Context, delegator string, validator string) (chain.Delegation, bool, error) {
	return chain.Delegation{}, false, nil
}

func (q *querier) PendingRewards(ctx context.Context, delegator string) ([]chain.Reward, error) {
	return nil, nil
}

func (q *querier) Pool(ctx context.Context) (chain.Pool, error) {
	return chain.Pool{BondedTokens: math.NewInt(1000), NotBondedTokens: math.ZeroInt()}, nil
}

func (q *querier) Account(ctx context.Context, address string) (chain.AccountInfo, error) {
	q.queries.Add(1)
	return chain.AccountInfo{Address: address, AccountNumber: 11, Sequence: 4}, nil
}

type broadcaster struct {
	result   chain.TxResult
	err      error
	calls    atomic.Int32
	inflight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration

	mu   sync.Mutex
	last []byte
}

func (b *broadcaster) Broadcast(ctx context.Context, txBytes []byte) (chain.TxResult, error) {
	b.calls.Add(1)

	n := b.inflight.Add(1)
	defer b.inflight.Add(-1)
	for {
		peak := b.peak.Load()
		if n <= peak || b.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	b.mu.Lock()
	b.last = txBytes
	b.mu.Unlock()

	time.Sleep(b.delay)

	if b.err != nil {
		return chain.TxResult{}, b.err
	}
	return b.result, nil
}

type confirmer struct {
	result chain.TxResult
	err    error
	calls  atomic.Int32
}

func (c *confirmer) Confirm(ctx context.Context, hash string) (chain.TxResult, error) {
	c.calls.Add(1)
	if c.err != nil {
		return chain.TxResult{}, c.err
	}
	res := c.result
	res.Hash = hash
	return res, nil
}

type harness struct {
	q     *querier
	b     *broadcaster
	c     *confirmer
	codec *sdktx.Codec
	src   *keys.Source
	ex    *txn.Executor
}

func newHarness(t *testing.T, balance int64) *harness {
	q := querier{
		balances: chain.Coins{chain.NewInt64Coin("uatom", balance)},
		validators: map[string]chain.Validator{
			val1: {OperatorAddress: val1, Moniker: "one", Tokens: math.NewInt(100), Commission: math.LegacyZeroDec(), Status: chain.StatusBonded},
		},
	}
	b := broadcaster{result: chain.TxResult{Hash: "AAAA", Success: true}}
	c := confirmer{result: chain.TxResult{Success: true, Height: 77, GasUsed: 90000}}

	codec, err := sdktx.New("cosmos")
	if err != nil {
		t.Fatalf("Should be able to construct the codec: %s", err)
	}

	src, err := keys.FromMnemonic("wallet1", mnemonic, wallet.Params{Prefix: "cosmos", CoinType: wallet.DefaultCoinType}, codec)
	if err != nil {
		t.Fatalf("Should be able to construct the account source: %s", err)
	}

	ex, err := txn.New(txn.Config{
		Querier:     &q,
		Broadcaster: &b,
		Confirmer:   &c,
		Encoder:     codec,
		ChainID:     "theta-testnet-001",
		Prefix:      "cosmos",
		Denom:       "uatom",
		Fee:         chain.DefaultFeePolicy("uatom"),
		EvHandler: func(v string, args ...any) {
			t.Logf(v, args...)
		},
	})
	if err != nil {
		t.Fatalf("Should be able to construct the executor: %s", err)
	}

	return &harness{q: &q, b: &b, c: &c, codec: codec, src: src, ex: ex}
}

// =============================================================================

func Test_Preflight(t *testing.T) {
	t.Log("Given the need to stop transactions that can't be paid for.")
	{
		t.Logf("\tTest 0:\tWhen transferring more than the balance.")
		{
			h := newHarness(t, 10000)

			_, err := h.ex.Transfer(context.Background(), h.src, acc1, math.NewInt(10001), "")
			if !chain.IsInsufficientFundsError(err) {
				t.Fatalf("\t%s\tShould fail with insufficient funds, got %v.", failed, err)
			}

			if chain.Submitted(err) {
				t.Fatalf("\t%s\tShould report nothing was submitted.", failed)
			}

			if n := h.b.calls.Load(); n != 0 {
				t.Fatalf("\t%s\tShould not broadcast, got %d calls.", failed, n)
			}
			t.Logf("\t%s\tShould fail with insufficient funds and no broadcast.", success)
		}

		t.Logf("\tTest 1:\tWhen delegating the full fee denom balance.")
		{
			h := newHarness(t, 1000000)

			_, err := h.ex.Delegate(context.Background(), h.src, val1, math.NewInt(1000000), "")

			var ife *chain.InsufficientFundsError
			if !errors.As(err, &ife) {
				t.Fatalf("\t%s\tShould fail with insufficient funds, got %v.", failed, err)
			}

			if !ife.Required.Equal(math.NewInt(1005000)) || !ife.Available.Equal(math.NewInt(1000000)) {
				t.Fatalf("\t%s\tShould require the amount plus the fee: %s", failed, ife)
			}

			if n := h.b.calls.Load(); n != 0 {
				t.Fatalf("\t%s\tShould not broadcast, got %d calls.", failed, n)
			}
			t.Logf("\t%s\tShould require the amount plus the fee.", success)
		}

		t.Logf("\tTest 2:\tWhen delegating to a missing validator.")
		{
			h := newHarness(t, 1000000)

			_, err := h.ex.Delegate(context.Background(), h.src, val2, math.NewInt(1000), "")
			if !chain.IsValidatorNotFoundError(err) || h.b.calls.Load() != 0 {
				t.Fatalf("\t%s\tShould fail with validator not found, got %v.", failed, err)
			}
			t.Logf("\t%s\tShould fail with validator not found and no broadcast.", success)
		}

		t.Logf("\tTest 3:\tWhen the request is malformed.")
		{
			h := newHarness(t, 1000000)

			ops := []txn.Operation{
				{Kind: txn.KindTransfer, To: val1, Amount: math.NewInt(10)},
				{Kind: txn.KindTransfer, To: acc1},
				{Kind: txn.KindDelegate, Validator: acc1, Amount: math.NewInt(1000)},
				{Kind: txn.KindDelegate, Validator: val1, Amount: math.NewInt(999)},
				{Kind: txn.KindDelegate, Validator: val1, Amount: math.NewInt(5000), Denom: "uosmo"},
				{Kind: txn.KindCreateValidator, Moniker: "x", Commission: math.LegacyMustNewDecFromStr("1.5"), Amount: math.NewInt(1000000)},
				{Kind: "mint"},
			}

			for _, op := range ops {
				if _, err := h.ex.Execute(context.Background(), h.src, op); !chain.IsInvalidRequestError(err) {
					t.Fatalf("\t%s\tShould reject %+v, got %v.", failed, op, err)
				}
			}

			if n := h.q.queries.Load(); n != 0 {
				t.Fatalf("\t%s\tShould not query the chain, got %d queries.", failed, n)
			}
			t.Logf("\t%s\tShould reject malformed requests without any network call.", success)
		}

		t.Logf("\tTest 4:\tWhen a required field is missing for the kind.")
		{
			h := newHarness(t, 1000000)

			tt := []struct {
				op    txn.Operation
				field string
			}{
				{op: txn.Operation{Kind: txn.KindTransfer, Amount: math.NewInt(10)}, field: "to"},
				{op: txn.Operation{Kind: txn.KindWithdrawRewards}, field: "validator"},
				{op: txn.Operation{Kind: txn.KindCreateValidator, Commission: math.LegacyZeroDec(), Amount: math.NewInt(1000000)}, field: "moniker"},
				{op: txn.Operation{Kind: txn.KindCreateValidator, Moniker: strings.Repeat("v", 71), Commission: math.LegacyZeroDec(), Amount: math.NewInt(1000000)}, field: "moniker"},
				{op: txn.Operation{Kind: "mint"}, field: "kind"},
			}

			for _, tst := range tt {
				_, err := h.ex.Execute(context.Background(), h.src, tst.op)

				var ire *chain.InvalidRequestError
				if !errors.As(err, &ire) || ire.Field != tst.field {
					t.Fatalf("\t%s\tShould reject %+v on field %s, got %v.", failed, tst.op, tst.field, err)
				}
			}
			t.Logf("\t%s\tShould name the offending field.", success)
		}
	}
}

func Test_Execute(t *testing.T) {
	t.Log("Given the need to execute transactions.")
	{
		t.Logf("\tTest 0:\tWhen delegating with enough funds.")
		{
			h := newHarness(t, 1000000)

			memo := strings.Repeat("m", 300)
			res, err := h.ex.Delegate(context.Background(), h.src, val1, math.NewInt(50000), memo)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to delegate: %s", failed, err)
			}

			if res.Hash != "AAAA" || res.Height != 77 || !res.Success {
				t.Fatalf("\t%s\tShould return the confirmed result: %+v", failed, res)
			}
			t.Logf("\t%s\tShould return the confirmed result.", success)

			tx, err := h.codec.Decode(h.b.last)
			if err != nil {
				t.Fatalf("\t%s\tShould broadcast a decodable transaction: %s", failed, err)
			}

			msgs := tx.GetMsgs()
			if len(msgs) != 1 {
				t.Fatalf("\t%s\tShould carry exactly one message, got %d.", failed, len(msgs))
			}

			del, ok := msgs[0].(*stakingtypes.MsgDelegate)
			if !ok || del.DelegatorAddress != sender || !del.Amount.Amount.Equal(math.NewInt(50000)) {
				t.Fatalf("\t%s\tShould carry the delegation: %+v", failed, msgs[0])
			}

			if n := len(tx.GetMemo()); n != chain.MaxMemoLength {
				t.Fatalf("\t%s\tShould truncate the memo, got %d bytes.", failed, n)
			}

			if tx.GetGas() != 200000 || !tx.GetFee().AmountOf("uatom").Equal(math.NewInt(5000)) {
				t.Fatalf("\t%s\tShould attach the fee policy: %d %s", failed, tx.GetGas(), tx.GetFee())
			}
			t.Logf("\t%s\tShould construct a single message transaction with the fee policy.", success)
		}

		t.Logf("\tTest 1:\tWhen the chain rejects the transaction at admission.")
		{
			h := newHarness(t, 1000000)
			h.b.result = chain.TxResult{Hash: "BBBB", Code: 32, Codespace: "sdk", RawLog: "account sequence mismatch"}

			_, err := h.ex.Transfer(context.Background(), h.src, acc1, math.NewInt(100), "")
			be := chain.GetBroadcastError(err)
			if be == nil || be.Stage != chain.StageCheckTx || be.RawLog != "account sequence mismatch" {
				t.Fatalf("\t%s\tShould fail with a checktx broadcast error, got %v.", failed, err)
			}

			if chain.Submitted(err) || h.c.calls.Load() != 0 {
				t.Fatalf("\t%s\tShould not wait for inclusion of a rejected transaction.", failed)
			}
			t.Logf("\t%s\tShould fail with a checktx broadcast error.", success)
		}

		t.Logf("\tTest 2:\tWhen the transaction fails in the block.")
		{
			h := newHarness(t, 1000000)
			h.c.result = chain.TxResult{Success: false, Code: 5, RawLog: "out of gas", Height: 80}

			_, err := h.ex.WithdrawRewards(context.Background(), h.src, val1, "")
			be := chain.GetBroadcastError(err)
			if be == nil || be.Stage != chain.StageDeliverTx || be.Hash != "AAAA" {
				t.Fatalf("\t%s\tShould fail with a delivertx broadcast error, got %v.", failed, err)
			}

			if !chain.Submitted(err) {
				t.Fatalf("\t%s\tShould report the transaction was submitted.", failed)
			}
			t.Logf("\t%s\tShould fail with a delivertx broadcast error.", success)
		}

		t.Logf("\tTest 3:\tWhen inclusion can't be confirmed.")
		{
			h := newHarness(t, 1000000)
			h.c.err = chain.ErrTxPending

			_, err := h.ex.Transfer(context.Background(), h.src, acc1, math.NewInt(100), "")
			if !chain.IsOutcomeUnknownError(err) || !chain.Submitted(err) || !errors.Is(err, chain.ErrTxPending) {
				t.Fatalf("\t%s\tShould report an unknown outcome, got %v.", failed, err)
			}
			t.Logf("\t%s\tShould report an unknown outcome.", success)
		}

		t.Logf("\tTest 4:\tWhen the broadcast fails in transit.")
		{
			h := newHarness(t, 1000000)
			h.b.err = &chain.NetworkError{Op: "POST", URL: "/txs", Err: context.DeadlineExceeded}

			_, err := h.ex.Transfer(context.Background(), h.src, acc1, math.NewInt(100), "")
			if !chain.IsOutcomeUnknownError(err) {
				t.Fatalf("\t%s\tShould report an unknown outcome, got %v.", failed, err)
			}

			h.b.err = &chain.NetworkError{Op: "POST", URL: "/txs", Status: 400, Err: errors.New("tx parse error")}

			_, err = h.ex.Transfer(context.Background(), h.src, acc1, math.NewInt(100), "")
			if !chain.IsNetworkError(err) || chain.Submitted(err) {
				t.Fatalf("\t%s\tShould report a refused request as not submitted, got %v.", failed, err)
			}
			t.Logf("\t%s\tShould tell a refused request apart from a lost one.", success)
		}
	}
}

func Test_Simulate(t *testing.T) {
	h := newHarness(t, 2000000)

	t.Log("Given the need to simulate validator creation.")
	{
		out, err := h.ex.Execute(context.Background(), h.src, txn.Operation{
			Kind:       txn.KindCreateValidator,
			Moniker:    "MyCosmosValidator",
			Commission: math.LegacyMustNewDecFromStr("0.10"),
			Amount:     math.NewInt(chain.MinSelfDelegation),
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to simulate: %s", failed, err)
		}

		if out.Kind != txn.OutcomeSimulated || out.Simulation == nil {
			t.Fatalf("\t%s\tShould produce a simulated outcome: %+v", failed, out)
		}

		sim := out.Simulation
		if sim.Operator != "cosmosvaloper19rl4cm2hmr8afy4kldpxz3fka4jguq0ae5egnx" || sim.Delegator != sender {
			t.Fatalf("\t%s\tShould describe the operator: %+v", failed, sim)
		}

		if sim.SelfDelegation.String() != "1000000uatom" || len(sim.Steps) != 4 {
			t.Fatalf("\t%s\tShould describe the self delegation and steps: %+v", failed, sim)
		}

		if h.b.calls.Load() != 0 {
			t.Fatalf("\t%s\tShould never broadcast a simulation.", failed)
		}
		t.Logf("\t%s\tShould simulate without broadcasting.", success)

		// The simulation pays no fee, so the full balance can be self delegated.
		if _, err := h.ex.SimulateCreateValidator(context.Background(), h.src, "full", math.LegacyZeroDec(), math.NewInt(2000000)); err != nil {
			t.Fatalf("\t%s\tShould allow self delegating the full balance: %s", failed, err)
		}

		_, err = h.ex.SimulateCreateValidator(context.Background(), h.src, "rich", math.LegacyZeroDec(), math.NewInt(2000001))
		if !chain.IsInsufficientFundsError(err) {
			t.Fatalf("\t%s\tShould preflight the self delegation, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould preflight the self delegation.", success)
	}
}

func Test_Serialized(t *testing.T) {
	h := newHarness(t, 100000000)
	h.b.delay = 20 * time.Millisecond

	var wg sync.WaitGroup
	errs := make(chan error, 4)

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.ex.Transfer(context.Background(), h.src, acc1, math.NewInt(100), ""); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("\t%s\tShould be able to transfer: %s", failed, err)
	}

	if peak := h.b.peak.Load(); peak != 1 {
		t.Fatalf("\t%s\tShould keep one transaction in flight per account, got %d.", failed, peak)
	}
	t.Logf("\t%s\tShould keep one transaction in flight per account.", success)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.ex.Transfer(ctx, h.src, acc1, math.NewInt(100), ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("\t%s\tShould honor cancellation while waiting, got %v.", failed, err)
	}
}

func Test_New(t *testing.T) {
	q := querier{}
	_, err := txn.New(txn.Config{
		Querier:     &q,
		Broadcaster: &broadcaster{},
		Confirmer:   &confirmer{},
		ChainID:     "cosmoshub-4",
		Prefix:      "cosmos",
		Denom:       "uatom",
		Fee:         chain.DefaultFeePolicy("uosmo"),
	})

	if !chain.IsConfigurationError(err) {
		t.Fatalf("\t%s\tShould reject a fee denom that is not the staking denom, got %v.", failed, err)
	}
	t.Logf("\t%s\tShould reject a fee denom that is not the staking denom.", success)

	_, err = txn.New(txn.Config{
		Querier:     &q,
		Broadcaster: &broadcaster{},
		Confirmer:   &confirmer{},
		ChainID:     "cosmoshub-4",
		Prefix:      "cosmos",
		Denom:       "uatom",
		MemoLimit:   -1,
	})

	var ce *chain.ConfigurationError
	if !errors.As(err, &ce) || ce.Field != "memo.limit" {
		t.Fatalf("\t%s\tShould reject a negative memo limit, got %v.", failed, err)
	}
	t.Logf("\t%s\tShould reject a negative memo limit.", success)
}
