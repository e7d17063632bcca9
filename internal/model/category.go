package model

// CategoryKind tells whether a category normally holds income or spending.
type CategoryKind string

const (
	CategoryIncome  CategoryKind = "income"
	CategoryExpense CategoryKind = "expense"
)

// Category is an entry in the fixed category table.
type Category struct {
	Key  string
	Name string
	Kind CategoryKind
}

// CategoryOther is the fallback for unknown keys.
const CategoryOther = "other"

var categories = []Category{
	{Key: "salary", Name: "Salary", Kind: CategoryIncome},
	{Key: "gift", Name: "Gift", Kind: CategoryIncome},
	{Key: "refund", Name: "Refund", Kind: CategoryIncome},
	{Key: "interest", Name: "Interest", Kind: CategoryIncome},
	{Key: "groceries", Name: "Groceries", Kind: CategoryExpense},
	{Key: "rent", Name: "Rent", Kind: CategoryExpense},
	{Key: "utilities", Name: "Utilities", Kind: CategoryExpense},
	{Key: "transport", Name: "Transport", Kind: CategoryExpense},
	{Key: "dining", Name: "Dining Out", Kind: CategoryExpense},
	{Key: "entertainment", Name: "Entertainment", Kind: CategoryExpense},
	{Key: "shopping", Name: "Shopping", Kind: CategoryExpense},
	{Key: "health", Name: "Health", Kind: CategoryExpense},
	{Key: "subscriptions", Name: "Subscriptions", Kind: CategoryExpense},
	{Key: "savings", Name: "Savings", Kind: CategoryExpense},
	{Key: CategoryOther, Name: "Other", Kind: CategoryExpense},
}

var categoryByKey = func() map[string]Category {
	m := make(map[string]Category, len(categories))
	for _, c := range categories {
		m[c.Key] = c
	}
	return m
}()

// Categories returns the category table in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// LookupCategory returns the category for key, falling back to "other".
func LookupCategory(key string) Category {
	if c, ok := categoryByKey[key]; ok {
		return c
	}
	return categoryByKey[CategoryOther]
}

// IsCategory reports whether key is in the table.
func IsCategory(key string) bool {
	_, ok := categoryByKey[key]
	return ok
}
