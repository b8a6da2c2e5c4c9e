package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	InstallmentStatusPending = "PENDING"
	InstallmentStatusPaid    = "PAID"
)

const (
	DaybookStatusCleared = "CLEARED"
	DaybookStatusPending = "PENDING"
	DaybookStatusVoid    = "VOID"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleOwner = "OWNER"
	UserRoleStaff = "STAFF"
)

const (
	PaymentModeCash   = "CASH"
	PaymentModeBank   = "BANK"
	PaymentModeMobile = "MOBILE"
)

const (
	DaybookTypeIncome  = "income"
	DaybookTypeExpense = "expense"
)

const (
	TransactionTypeDebit  = "DEBIT"
	TransactionTypeCredit = "CREDIT"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	LedgerTypeSale         = "SALE"
	LedgerTypeInstallment  = "INSTALLMENT"
	LedgerTypePurchase     = "PURCHASE"
	LedgerTypeSaleReversal = "SALE_REVERSAL"
	LedgerTypeManual       = "MANUAL"
)

const (
	DaybookCategorySale        = "sale"
	DaybookCategoryAdvance     = "advance"
	DaybookCategoryInstallment = "installment"
	DaybookCategoryPurchase    = "purchase"
)
