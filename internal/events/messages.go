package events

import "fmt"

type Kind string

const (
	KindTransactionsUpdated Kind = "transactions-updated"
	KindCategoriesUpdated   Kind = "categories-updated"
	KindCategoryDeleted     Kind = "category-deleted"
	KindBudgetsUpdated      Kind = "budgets-updated"
)

// Notification is one of the fixed set of session notifications. The set is
// closed: only the types in this file implement it.
type Notification interface {
	Kind() Kind
	notification()
}

// TransactionsUpdated fires after any transaction is added, edited or removed.
type TransactionsUpdated struct{}

// CategoriesUpdated fires after a category is added or renamed.
type CategoriesUpdated struct{}

// CategoryDeleted fires after a category is removed, whether or not anything
// referenced it. Subscribers delete their dependents.
type CategoryDeleted struct {
	CategoryID int64
}

// BudgetsUpdated fires after any budget is added, edited or removed.
type BudgetsUpdated struct{}

func (TransactionsUpdated) Kind() Kind { return KindTransactionsUpdated }
func (CategoriesUpdated) Kind() Kind   { return KindCategoriesUpdated }
func (CategoryDeleted) Kind() Kind     { return KindCategoryDeleted }
func (BudgetsUpdated) Kind() Kind      { return KindBudgetsUpdated }

func (TransactionsUpdated) notification() {}
func (CategoriesUpdated) notification()   {}
func (CategoryDeleted) notification()     {}
func (BudgetsUpdated) notification()      {}

func (n CategoryDeleted) String() string {
	return fmt.Sprintf("%s(%d)", KindCategoryDeleted, n.CategoryID)
}
