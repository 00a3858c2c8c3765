package services

import (
	"context"
	"fmt"

	"budgenet/internal/core"
	"budgenet/internal/events"
	"budgenet/internal/log"
	"budgenet/internal/storage"
)

// UpdateMode selects how an edit treats the stored timestamp.
type UpdateMode int

const (
	// ReplaceDate stores the date carried by the edited transaction.
	ReplaceDate UpdateMode = iota
	// PreserveDate keeps the original timestamp and changes only the other
	// fields.
	PreserveDate
)

type TransactionService struct {
	store      TransactionStore
	categories CategoryStore
	notifier
}

func NewTransactionService(store TransactionStore, categories CategoryStore, pub Publisher, logger *log.Logger) *TransactionService {
	return &TransactionService{
		store:      store,
		categories: categories,
		notifier:   notifier{pub: pub, log: log.OrDiscard(logger).WithComponent(log.ComponentServices)},
	}
}

func (s *TransactionService) List(ctx context.Context, f storage.Filter) ([]core.Transaction, error) {
	txs, err := s.store.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *TransactionService) All(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return txs, nil
}

// Add validates and saves a new transaction. Invalid input never reaches
// the store.
func (s *TransactionService) Add(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = 0
	t.IsEdited = false
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	name, err := categoryName(ctx, s.categories, t.CategoryID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}
	t.CategoryName = name

	id, err := s.store.Add(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}
	t.ID = id

	s.log.InfoContext(ctx, "Transaction added",
		log.FieldID, id,
		log.FieldType, string(t.Type),
		log.FieldAmount, t.Amount.String(),
		log.FieldCategoryID, t.CategoryID)
	s.publish(ctx, events.TransactionsUpdated{})
	return t, nil
}

// Update saves an edit to an existing transaction and marks it as edited.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction, mode UpdateMode) (core.Transaction, error) {
	if t.ID == 0 {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", core.ErrNotFound)
	}
	current, ok, err := s.store.Get(ctx, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	if !ok {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, core.ErrNotFound)
	}

	if mode == PreserveDate {
		t.Date = current.Date
	}
	t.IsEdited = true
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	name, err := categoryName(ctx, s.categories, t.CategoryID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	t.CategoryName = name

	if err := s.store.Update(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}

	s.log.InfoContext(ctx, "Transaction updated", log.FieldID, t.ID, log.FieldCategoryID, t.CategoryID)
	s.publish(ctx, events.TransactionsUpdated{})
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	_, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("delete transaction %d: %w", id, core.ErrNotFound)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	s.log.InfoContext(ctx, "Transaction deleted", log.FieldID, id)
	s.publish(ctx, events.TransactionsUpdated{})
	return nil
}

// DeleteByCategory removes every transaction of a category in one atomic
// store operation. Deleting nothing is not an error.
func (s *TransactionService) DeleteByCategory(ctx context.Context, categoryID int64) (int, error) {
	n, err := s.store.DeleteAllByIndex(ctx, storage.IndexCategoryID, categoryID)
	if err != nil {
		return 0, fmt.Errorf("delete transactions of category %d: %w", categoryID, err)
	}
	s.log.InfoContext(ctx, "Transactions of category deleted",
		log.FieldOperation, log.OpCascade,
		log.FieldCategoryID, categoryID,
		log.FieldCount, n)
	if n > 0 {
		s.publish(ctx, events.TransactionsUpdated{})
	}
	return n, nil
}
