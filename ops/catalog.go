package ops

import (
	"time"

	"github.com/jonwraymond/fincache/cache"
	"github.com/jonwraymond/fincache/shape"
)

// Query operation names.
const (
	OpGetAccounts              = "GetAccounts"
	OpGetTransactions          = "GetTransactions"
	OpGetTransactionDetails    = "GetTransactionDetails"
	OpGetBudgets               = "GetBudgets"
	OpGetCashflow              = "GetCashflow"
	OpGetCategories            = "GetCategories"
	OpGetCategoryGroups        = "GetCategoryGroups"
	OpGetTags                  = "GetTags"
	OpGetMerchants             = "GetMerchants"
	OpGetInstitutions          = "GetInstitutions"
	OpGetRecurringTransactions = "GetRecurringTransactions"
	OpGetSubscriptionDetails   = "GetSubscriptionDetails"
)

// Mutation operation names.
const (
	OpCreateTransaction   = "CreateTransaction"
	OpUpdateTransaction   = "UpdateTransaction"
	OpDeleteTransaction   = "DeleteTransaction"
	OpCreateCategory      = "CreateCategory"
	OpDeleteCategory      = "DeleteCategory"
	OpCreateTag           = "CreateTag"
	OpSetTransactionTags  = "SetTransactionTags"
	OpCreateManualAccount = "CreateManualAccount"
	OpUpdateAccount       = "UpdateAccount"
	OpDeleteAccount       = "DeleteAccount"
	OpSetBudgetAmount     = "SetBudgetAmount"
	OpRefreshAccounts     = "RefreshAccounts"
)

// Account payload field selections for the narrow shapes.
var (
	accountBasicFields   = []string{"accounts", "id", "displayName", "type", "subtype"}
	accountBalanceFields = []string{"accounts", "id", "displayName", "currentBalance", "includeInNetWorth", "updatedAt"}
)

// DefaultCatalog returns the descriptor set for the upstream financial API.
//
// TTL assignments follow the volatility of each data set: category and
// subscription structure is static, merchant and institution directories
// are semi-static, and anything reflecting balances or transactions is
// dynamic. Transaction listings carry a 2 minute override within the
// dynamic class.
func DefaultCatalog() []Descriptor {
	transactionInvalidates := []string{
		OpGetTransactions,
		OpGetTransactionDetails,
		OpGetCashflow,
		OpGetBudgets,
	}

	return []Descriptor{
		// Queries
		{
			Name:  OpGetAccounts,
			Kind:  KindQuery,
			Class: cache.ClassDynamic,
			Projections: map[shape.Level]shape.Projection{
				shape.LevelBasic:   {Fields: accountBasicFields},
				shape.LevelBalance: {Fields: accountBalanceFields},
			},
		},
		{
			Name:        OpGetTransactions,
			Kind:        KindQuery,
			Class:       cache.ClassDynamic,
			TTLOverride: 2 * time.Minute,
			SetParams:   []string{"account_ids", "category_ids", "tag_ids"},
		},
		{
			Name:        OpGetTransactionDetails,
			Kind:        KindQuery,
			Class:       cache.ClassDynamic,
			TTLOverride: 2 * time.Minute,
		},
		{
			Name:  OpGetBudgets,
			Kind:  KindQuery,
			Class: cache.ClassDynamic,
		},
		{
			Name:  OpGetCashflow,
			Kind:  KindQuery,
			Class: cache.ClassDynamic,
		},
		{
			Name:  OpGetCategories,
			Kind:  KindQuery,
			Class: cache.ClassStatic,
		},
		{
			Name:  OpGetCategoryGroups,
			Kind:  KindQuery,
			Class: cache.ClassStatic,
		},
		{
			Name:  OpGetTags,
			Kind:  KindQuery,
			Class: cache.ClassSemiStatic,
		},
		{
			Name:  OpGetMerchants,
			Kind:  KindQuery,
			Class: cache.ClassSemiStatic,
		},
		{
			Name:  OpGetInstitutions,
			Kind:  KindQuery,
			Class: cache.ClassSemiStatic,
		},
		{
			Name:  OpGetRecurringTransactions,
			Kind:  KindQuery,
			Class: cache.ClassSemiStatic,
		},
		{
			Name:  OpGetSubscriptionDetails,
			Kind:  KindQuery,
			Class: cache.ClassStatic,
		},

		// Mutations
		{
			Name:        OpCreateTransaction,
			Kind:        KindMutation,
			Invalidates: transactionInvalidates,
		},
		{
			Name:        OpUpdateTransaction,
			Kind:        KindMutation,
			Invalidates: transactionInvalidates,
		},
		{
			Name:        OpDeleteTransaction,
			Kind:        KindMutation,
			Invalidates: transactionInvalidates,
		},
		{
			Name:        OpCreateCategory,
			Kind:        KindMutation,
			Invalidates: []string{OpGetCategories, OpGetCategoryGroups},
		},
		{
			Name: OpDeleteCategory,
			Kind: KindMutation,
			// Transactions reference categories; listings go stale too.
			Invalidates: []string{OpGetCategories, OpGetCategoryGroups, OpGetTransactions},
		},
		{
			Name:        OpCreateTag,
			Kind:        KindMutation,
			Invalidates: []string{OpGetTags},
		},
		{
			Name:        OpSetTransactionTags,
			Kind:        KindMutation,
			Invalidates: []string{OpGetTransactions, OpGetTransactionDetails},
		},
		{
			Name:        OpCreateManualAccount,
			Kind:        KindMutation,
			Invalidates: []string{OpGetAccounts},
		},
		{
			Name:        OpUpdateAccount,
			Kind:        KindMutation,
			Invalidates: []string{OpGetAccounts},
		},
		{
			Name:        OpDeleteAccount,
			Kind:        KindMutation,
			Invalidates: []string{OpGetAccounts, OpGetTransactions, OpGetCashflow},
		},
		{
			Name:        OpSetBudgetAmount,
			Kind:        KindMutation,
			Invalidates: []string{OpGetBudgets, OpGetCashflow},
		},
		{
			Name:        OpRefreshAccounts,
			Kind:        KindMutation,
			Invalidates: []string{OpGetAccounts, OpGetTransactions, OpGetCashflow},
		},
	}
}

// DefaultRegistry builds a registry from the default catalog.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(DefaultCatalog()...)
}
