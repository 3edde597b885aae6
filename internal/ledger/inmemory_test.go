package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func appendN(t *testing.T, l Ledger, accountID string, deltas ...int64) []Entry {
	t.Helper()
	out := make([]Entry, 0, len(deltas))
	for i, d := range deltas {
		kind := KindCredit
		if d < 0 {
			kind = KindDebit
		}
		e, err := l.Append(context.Background(), AppendInput{
			AccountID:   accountID,
			Description: fmt.Sprintf("entry %d", i),
			Delta:       decimal.NewFromInt(d),
			Kind:        kind,
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		out = append(out, e)
	}
	return out
}

func TestInMemoryLedger_SignupBonus(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	entry, err := l.Append(ctx, AppendInput{AccountID: "member:1", Description: "Signup bonus", Delta: decimal.NewFromInt(100), Kind: KindCredit})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if entry.Sequence != 1 {
		t.Fatalf("expected sequence 1, got %d", entry.Sequence)
	}

	balance, _ := l.Balance(ctx, "member:1")
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance 100, got %s", balance)
	}
	count, _ := l.TotalCount(ctx, "member:1")
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
}

func TestInMemoryLedger_HistoryMostRecentFirst(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if _, err := l.Append(ctx, AppendInput{AccountID: "acct", Description: "Signup bonus", Delta: decimal.NewFromInt(100), Kind: KindCredit}); err != nil {
		t.Fatalf("append credit: %v", err)
	}
	if _, err := l.Append(ctx, AppendInput{AccountID: "acct", Description: "Ice cream", Delta: decimal.NewFromInt(-35), Kind: KindDebit}); err != nil {
		t.Fatalf("append debit: %v", err)
	}

	balance, _ := l.Balance(ctx, "acct")
	if !balance.Equal(decimal.NewFromInt(65)) {
		t.Fatalf("expected balance 65, got %s", balance)
	}

	history, err := l.History(ctx, "acct", 0, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if !history[0].Delta.Equal(decimal.NewFromInt(-35)) || history[0].Description != "Ice cream" {
		t.Fatalf("expected ice cream first, got %+v", history[0])
	}
	if !history[1].Delta.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected signup bonus second, got %+v", history[1])
	}
	if !history[0].BalanceAfter.Equal(decimal.NewFromInt(65)) || !history[1].BalanceAfter.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected running balances: %s, %s", history[0].BalanceAfter, history[1].BalanceAfter)
	}
}

func TestInMemoryLedger_HistoryEdgeCases(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	appendN(t, l, "acct", 10, 20, 30)

	past, err := l.History(ctx, "acct", 5, 10)
	if err != nil {
		t.Fatalf("history past end: %v", err)
	}
	if len(past) != 0 {
		t.Fatalf("expected empty page past end, got %d", len(past))
	}

	if zero, _ := l.History(ctx, "acct", 0, 0); len(zero) != 0 {
		t.Fatalf("expected empty page for limit 0, got %d", len(zero))
	}
	if neg, _ := l.History(ctx, "acct", 0, -3); len(neg) != 0 {
		t.Fatalf("expected empty page for negative limit, got %d", len(neg))
	}

	tail, _ := l.History(ctx, "acct", 1, 100)
	if len(tail) != 2 || tail[0].Sequence != 2 || tail[1].Sequence != 1 {
		t.Fatalf("unexpected tail page: %+v", tail)
	}

	unknown, err := l.History(ctx, "nobody", 0, 10)
	if err != nil || len(unknown) != 0 {
		t.Fatalf("expected empty history for unknown account, got %d entries, err %v", len(unknown), err)
	}
}

func TestInMemoryLedger_UnknownAccountReadsAsEmpty(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	balance, err := l.Balance(ctx, "0xYourWalletHere")
	if err != nil || !balance.IsZero() {
		t.Fatalf("expected zero balance without error, got %s, %v", balance, err)
	}
	count, err := l.TotalCount(ctx, "0xYourWalletHere")
	if err != nil || count != 0 {
		t.Fatalf("expected zero count without error, got %d, %v", count, err)
	}
	net, err := l.NetByKind(ctx, "0xYourWalletHere", KindCredit)
	if err != nil || !net.IsZero() {
		t.Fatalf("expected zero net without error, got %s, %v", net, err)
	}
}

func TestInMemoryLedger_NetByKindSplitsBySign(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	appendN(t, l, "acct", 100, -35, 50)

	credits, err := l.NetByKind(ctx, "acct", KindCredit)
	if err != nil {
		t.Fatalf("net credit: %v", err)
	}
	if !credits.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected credits 150, got %s", credits)
	}
	debits, _ := l.NetByKind(ctx, "acct", KindDebit)
	if !debits.Equal(decimal.NewFromInt(-35)) {
		t.Fatalf("expected debits -35, got %s", debits)
	}
	in, _ := l.NetByKind(ctx, "acct", KindTransferIn)
	out, _ := l.NetByKind(ctx, "acct", KindTransferOut)
	if !in.Equal(credits) || !out.Equal(debits) {
		t.Fatalf("transfer kinds should follow sign split, got in=%s out=%s", in, out)
	}
	all, _ := l.NetByKind(ctx, "acct", KindAdjustment)
	if !all.Equal(decimal.NewFromInt(115)) {
		t.Fatalf("expected adjustment net 115, got %s", all)
	}

	if _, err := l.NetByKind(ctx, "acct", Kind("bonus")); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected unknown kind, got %v", err)
	}
}

func TestInMemoryLedger_KindDoesNotDriveArithmetic(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	// a "credit" with a negative delta still reduces the balance
	if _, err := l.Append(ctx, AppendInput{AccountID: "acct", Delta: decimal.NewFromInt(-10), Kind: KindCredit}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := l.Append(ctx, AppendInput{AccountID: "acct", Description: "note", Delta: decimal.Zero, Kind: KindAdjustment}); err != nil {
		t.Fatalf("append zero delta: %v", err)
	}

	balance, _ := l.Balance(ctx, "acct")
	if !balance.Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("expected balance -10, got %s", balance)
	}
	debits, _ := l.NetByKind(ctx, "acct", KindDebit)
	if !debits.Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("expected debits -10, got %s", debits)
	}
	count, _ := l.TotalCount(ctx, "acct")
	if count != 2 {
		t.Fatalf("zero-delta entry should be counted, got %d", count)
	}
}

func TestInMemoryLedger_AppendValidation(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if _, err := l.Append(ctx, AppendInput{AccountID: "", Delta: decimal.NewFromInt(1), Kind: KindCredit}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty account, got %v", err)
	}
	if _, err := l.Append(ctx, AppendInput{AccountID: "   ", Delta: decimal.NewFromInt(1), Kind: KindCredit}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank account, got %v", err)
	}
	if _, err := l.Append(ctx, AppendInput{AccountID: "acct", Delta: decimal.NewFromInt(1), Kind: Kind("refund")}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected unknown kind, got %v", err)
	}

	count, _ := l.TotalCount(ctx, "acct")
	if count != 0 {
		t.Fatalf("rejected appends must not be stored, got count %d", count)
	}
}

func TestDeltaFromFloat(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := DeltaFromFloat(f); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected invalid input for %v, got %v", f, err)
		}
	}
	d, err := DeltaFromFloat(4.25)
	if err != nil {
		t.Fatalf("finite float: %v", err)
	}
	if !d.Equal(decimal.RequireFromString("4.25")) {
		t.Fatalf("expected 4.25, got %s", d)
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Transfer-In ")
	if err != nil || k != KindTransferIn {
		t.Fatalf("expected transfer-in, got %q, %v", k, err)
	}
	if _, err := ParseKind("gift"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected unknown kind, got %v", err)
	}
}

func TestInMemoryLedger_BalanceMatchesReplay(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	appendN(t, l, "acct", 500, -35, 50, 100, -100, 0, 7, -12)

	count, _ := l.TotalCount(ctx, "acct")
	history, _ := l.History(ctx, "acct", 0, int(count))

	sum := decimal.Zero
	for _, e := range history {
		sum = sum.Add(e.Delta)
	}
	balance, _ := l.Balance(ctx, "acct")
	if !balance.Equal(sum) {
		t.Fatalf("balance %s does not match replayed sum %s", balance, sum)
	}
}

func TestInMemoryLedger_OrderAndPagination(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	appended := appendN(t, l, "acct", 1, 2, 3, 4, 5, 6)

	count, _ := l.TotalCount(ctx, "acct")
	history, _ := l.History(ctx, "acct", 0, int(count))
	for i, e := range history {
		want := appended[len(appended)-1-i]
		if e.ID != want.ID || e.Sequence != want.Sequence {
			t.Fatalf("position %d: expected sequence %d, got %d", i, want.Sequence, e.Sequence)
		}
	}

	for k := 0; k < int(count); k++ {
		page, _ := l.History(ctx, "acct", k, 1)
		if len(page) != 1 || page[0].Sequence != count-uint64(k) {
			t.Fatalf("offset %d: expected sequence %d, got %+v", k, count-uint64(k), page)
		}
	}
}

func TestInMemoryLedger_IdempotentReads(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	appendN(t, l, "acct", 3, -1, 8)

	first, _ := l.History(ctx, "acct", 0, 10)
	b1, _ := l.Balance(ctx, "acct")
	second, _ := l.History(ctx, "acct", 0, 10)
	b2, _ := l.Balance(ctx, "acct")

	if !b1.Equal(b2) || len(first) != len(second) {
		t.Fatalf("repeated reads differ")
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("entry %d changed between reads", i)
		}
	}
}

func TestInMemoryLedger_ReturnedPageUnaffectedByLaterAppends(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	appendN(t, l, "acct", 1, 2)

	page, _ := l.History(ctx, "acct", 0, 2)
	appendN(t, l, "acct", 3, 4)

	if page[0].Sequence != 2 || page[1].Sequence != 1 {
		t.Fatalf("previously returned page changed: %+v", page)
	}
	page[0].Description = "tampered"
	again, _ := l.History(ctx, "acct", 2, 1)
	if again[0].Description == "tampered" {
		t.Fatalf("caller mutation leaked into the ledger")
	}
}

func TestInMemoryLedger_ConcurrentAppends(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	const workers = 64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := l.Append(ctx, AppendInput{AccountID: "wallet:a", Delta: decimal.NewFromInt(int64(i)), Kind: KindTransferIn}); err != nil {
				t.Errorf("append %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	count, _ := l.TotalCount(ctx, "wallet:a")
	if count != workers {
		t.Fatalf("expected %d entries, got %d", workers, count)
	}

	history, _ := l.History(ctx, "wallet:a", 0, workers)
	seen := make(map[uint64]bool, workers)
	for _, e := range history {
		if e.Sequence < 1 || e.Sequence > workers || seen[e.Sequence] {
			t.Fatalf("sequence %d duplicated or out of range", e.Sequence)
		}
		seen[e.Sequence] = true
	}

	balance, _ := l.Balance(ctx, "wallet:a")
	want := decimal.NewFromInt(workers * (workers - 1) / 2)
	if !balance.Equal(want) {
		t.Fatalf("expected balance %s, got %s", want, balance)
	}
}

func TestInMemoryLedger_ConcurrentAccountsIndependent(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	// hold one account's lock; appends elsewhere must still complete
	mem := l.(*inMemoryLedger)
	if err := l.EnsureAccount(ctx, "busy"); err != nil {
		t.Fatalf("ensure account: %v", err)
	}
	busy := mem.lookup("busy")
	busy.mu.Lock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := int64(1); i <= 3; i++ {
			if _, err := l.Append(ctx, AppendInput{AccountID: "free", Delta: decimal.NewFromInt(i), Kind: KindCredit}); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		busy.mu.Unlock()
		t.Fatal("append on an unrelated account blocked")
	}
	busy.mu.Unlock()

	count, _ := l.TotalCount(ctx, "free")
	if count != 3 {
		t.Fatalf("expected 3 entries, got %d", count)
	}
}

func TestInMemoryLedger_TimestampDoesNotOrder(t *testing.T) {
	times := []time.Time{
		time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 8, 0, 0, 0, 0, time.UTC),
	}
	i := 0
	l := NewInMemory(WithClock(func() time.Time {
		ts := times[i%len(times)]
		i++
		return ts
	}))
	ctx := context.Background()
	appendN(t, l, "acct", 1, 2)

	history, _ := l.History(ctx, "acct", 0, 2)
	if history[0].Sequence != 2 || !history[0].Timestamp.Equal(times[1]) {
		t.Fatalf("expected sequence to order entries despite clock skew, got %+v", history)
	}
}

func TestSeedBalance(t *testing.T) {
	l := NewInMemory()
	SeedBalance(l, "wallet:a", 5_000)

	balance, _ := l.Balance(context.Background(), "wallet:a")
	if !balance.Equal(decimal.NewFromInt(5_000)) {
		t.Fatalf("expected seeded balance 5000, got %s", balance)
	}
}
