package service

import (
	"errors"
	"testing"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Random sequences of disposals and restocks against one item: the stored
// quantity must always track the model exactly and can never go negative,
// and every successful mutation appends exactly one history row.
func TestQuantityInvariantUnderRandomOps(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		svc, db, stationID := newTestLedger(t)
		historyRepo := repository.NewHistoryRepo(db)

		initial := rapid.IntRange(1, 40).Draw(rt, "initial")
		item, err := svc.AddItem(&AddItemRequest{
			ItemName: "Toner X",
			ItemType: "Toner",
			Quantity: initial,
		}, testActor)
		require.NoError(rt, err)

		expected := initial
		expectedRows := int64(1)

		numOps := rapid.IntRange(1, 25).Draw(rt, "numOps")
		for i := 0; i < numOps; i++ {
			op := rapid.SampledFrom([]string{"dispose_keep", "dispose_all", "restock"}).Draw(rt, "op")

			switch op {
			case "dispose_keep":
				qty := rapid.IntRange(1, 50).Draw(rt, "qty")
				_, err := svc.Dispose(item.ID, &DisposeRequest{
					Quantity:        qty,
					Kind:            DisposeSent,
					RemainingPolicy: KeepRemainder,
					StationID:       &stationID,
				}, testActor)
				if qty > expected {
					var stockErr *InsufficientStockError
					require.True(rt, errors.As(err, &stockErr), "expected insufficient stock, got %v", err)
					require.Equal(rt, expected, stockErr.Available)
				} else {
					require.NoError(rt, err)
					expected -= qty
					expectedRows++
				}

			case "dispose_all":
				qty := rapid.IntRange(1, 50).Draw(rt, "qty")
				_, err := svc.Dispose(item.ID, &DisposeRequest{
					Quantity:        qty,
					Kind:            DisposeUsed,
					RemainingPolicy: ConsumeAll,
					StationID:       &stationID,
					Printer:         "HP LaserJet",
				}, testActor)
				if qty > expected {
					var stockErr *InsufficientStockError
					require.True(rt, errors.As(err, &stockErr), "expected insufficient stock, got %v", err)
				} else {
					require.NoError(rt, err)
					expected = 0
					expectedRows++
				}

			case "restock":
				qty := rapid.IntRange(1, 20).Draw(rt, "qty")
				_, err := svc.Restock(item.ID, &RestockRequest{Quantity: qty}, testActor)
				require.NoError(rt, err)
				expected += qty
				expectedRows++
			}

			got, err := svc.GetItem(item.ID)
			require.NoError(rt, err)
			require.Equal(rt, expected, got.Quantity)
			require.GreaterOrEqual(rt, got.Quantity, 0, "quantity must never go negative")

			if expected > 0 {
				require.Equal(rt, model.StatusInStock, got.Status)
			}

			rows, err := historyRepo.CountByItemID(item.ID)
			require.NoError(rt, err)
			require.Equal(rt, expectedRows, rows)
		}
	})
}
