package llm

import "github.com/ledgermap/ledgermap/internal/model"

// baseRules are the three governing classification heuristics.
const baseRules = `===== SPECIFIC RULES =====

NOMINAL ACCOUNTS (Always -> Profit & Loss):
- All Expenses: Salaries, Wages, Rent, Utilities, Insurance, Repairs, Advertising
- All Incomes: Sales, Service Revenue, Interest Income, Commission Income
- All Losses: Loss on Sale of Assets, Foreign Exchange Loss
- All Gains: Profit on Sale of Assets, Foreign Exchange Gain
- Purchases of Goods (for resale, not assets)
- Discounts (Given/Received)

REAL ACCOUNTS (Always -> Balance Sheet):
- Tangible Assets: Land, Building, Plant & Machinery, Furniture, Vehicles, Cash, Inventory
- Intangible Assets: Goodwill, Patents, Trademarks, Software
- Accumulated Depreciation (contra asset)
- Investments (long-term or short-term)

PERSONAL ACCOUNTS (Always -> Balance Sheet):
- Debtors / Accounts Receivable / Sundry Debtors
- Creditors / Accounts Payable / Sundry Creditors
- Bank Accounts (all types)
- Loans (Taken or Given)
- Capital Account
- Drawings Account
`

// edgeCaseRules cover the classic confusions between the account classes.
const edgeCaseRules = `===== EDGE CASES & COMMON CONFUSIONS =====

1. INVENTORY / STOCK:
   - Closing Stock / Inventory -> Balance Sheet (Current Asset)
   - Purchases (of goods for resale) -> Profit & Loss (Expense)
   - Purchase of Assets (machinery, furniture) -> Balance Sheet (Asset)

2. DEPRECIATION:
   - Depreciation Expense -> Profit & Loss (Expense)
   - Accumulated Depreciation -> Balance Sheet (Contra Asset)

3. ADVANCES:
   - Advances to Suppliers -> Balance Sheet (Current Asset)
   - Advances from Customers -> Balance Sheet (Current Liability)

4. PREPAID & OUTSTANDING:
   - Prepaid Expenses (Prepaid Rent, Insurance) -> Balance Sheet (Current Asset)
   - Outstanding Expenses (Outstanding Salary, Rent) -> Balance Sheet (Current Liability)

5. PROVISIONS:
   - Provision for Bad Debts -> Balance Sheet (Contra Asset)
   - Provision for Depreciation -> Balance Sheet (same as Accumulated Depreciation)
   - Provision for Tax -> Balance Sheet (Current Liability)

6. ACCRUALS:
   - Accrued Income -> Balance Sheet (Current Asset)
   - Accrued Expenses -> Balance Sheet (Current Liability)

7. DISCOUNT:
   - Discount Allowed (to customers) -> Profit & Loss (Expense)
   - Discount Received (from suppliers) -> Profit & Loss (Income)

8. CAPITAL vs REVENUE:
   - Capital Expenditure (buying assets) -> Balance Sheet
   - Revenue Expenditure (running business) -> Profit & Loss
`

// statutoryRules are fixed jurisdiction-specific overrides: tax and
// statutory payables default to the Balance Sheet.
const statutoryRules = `===== STATUTORY ACCOUNTS =====

GST (Goods & Services Tax):
- GST Payable / Output GST -> Balance Sheet (Current Liability)
- GST Receivable / Input GST / Input Credit -> Balance Sheet (Current Asset)
- Default assumption: GST accounts are Balance Sheet items

TDS (Tax Deducted at Source):
- TDS Payable -> Balance Sheet (Current Liability)
- TDS Receivable -> Balance Sheet (Current Asset)

Other statutory payables (PF, ESI, Professional Tax, Income Tax Payable):
- Default to Balance Sheet (Current Liability) until deposited
`

var domainRules = map[model.DomainContext]string{
	model.DomainSaaS: `SAAS/IT SPECIFIC:
- Software Licenses (purchased) -> Balance Sheet (Asset)
- Software Development Costs (capitalized) -> Balance Sheet
- Cloud Hosting Costs -> Profit & Loss (Expense)
- SaaS Subscriptions (tools used) -> Profit & Loss (Expense)
- Customer Subscription Revenue -> Profit & Loss (Income)
- Domain & SSL Costs -> Profit & Loss (Expense)
`,
	model.DomainManufacturing: `MANUFACTURING SPECIFIC:
- Raw Materials Inventory -> Balance Sheet (Current Asset)
- Work in Progress (WIP) -> Balance Sheet (Current Asset)
- Finished Goods Inventory -> Balance Sheet (Current Asset)
- Factory Rent -> Profit & Loss (Direct Expense)
- Direct Labor -> Profit & Loss (Direct Expense)
- Machinery Purchase -> Balance Sheet (Fixed Asset)
- Machinery Repairs -> Profit & Loss (Expense)
`,
	model.DomainRetail: `RETAIL/E-COMMERCE SPECIFIC:
- Inventory/Stock -> Balance Sheet (Current Asset)
- Payment Gateway Charges -> Profit & Loss (Expense)
- Shipping & Logistics -> Profit & Loss (Expense)
- E-commerce Platform Fees -> Profit & Loss (Expense)
- Returns & Refunds -> Profit & Loss (Contra Revenue)
- Store Fixtures -> Balance Sheet (Fixed Asset)
`,
	model.DomainServices: `SERVICES/CONSULTING SPECIFIC:
- Professional Fees Revenue -> Profit & Loss (Income)
- Consultant Payments -> Profit & Loss (Expense)
- Project Advances Received -> Balance Sheet (Current Liability)
- Unbilled Revenue -> Balance Sheet (Current Asset)
- Deferred Revenue -> Balance Sheet (Current Liability)
- Office Supplies -> Profit & Loss (Expense)
`,
	model.DomainGeneral: `GENERAL BUSINESS:
- Follow the standard Nominal/Real/Personal account classification
- When in doubt, decide whether it is an income/expense (P&L) or an asset/liability (BS)
`,
}

// RuleContext assembles the full rule text sent with every reasoning
// request: governing heuristics, domain preset, edge cases and the
// statutory overrides.
func RuleContext(domain model.DomainContext) string {
	specific, ok := domainRules[domain]
	if !ok {
		specific = domainRules[model.DomainGeneral]
	}
	return baseRules + "\n" + specific + "\n" + edgeCaseRules + "\n" + statutoryRules
}
