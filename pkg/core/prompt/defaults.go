package prompt

// Defaults returns the built-in prompts used when no prompt file overrides
// them. Each call returns fresh copies.
func Defaults() []*PromptTemplate {
	return []*PromptTemplate{
		{
			ID:          PromptIDs.ExtractionStatement,
			Name:        "Statement extraction",
			Category:    "extraction",
			Description: "Reads balance sheet and income statement rows from documents into JSON",
			Text:        extractionText,
			Marker:      MarkerDocuments,
			Placeholder: "{documents}",
			Version:     "1",
		},
		{
			ID:          PromptIDs.ReportAnalysis,
			Name:        "Analysis report",
			Category:    "report",
			Description: "Writes the counterparty report from pre-calculated indicators",
			Text:        reportText,
			Marker:      MarkerCalculations,
			Placeholder: "{calculations}",
			Version:     "1",
		},
	}
}

const extractionText = `Ти фінансовий аналітик. Твоє завдання: знайти у документах фінансової звітності
(Баланс, форма №1; Звіт про фінансові результати, форма №2) значення рядків
і повернути їх ОДНИМ JSON-об'єктом. Нічого не розраховуй, лише переписуй числа.

Структура відповіді:
{
  "company_name": "назва підприємства",
  "period": "звітний період, наприклад 2024",
  "balance_start": { ... значення на початок звітного періоду ... },
  "balance_end": { ... значення на кінець звітного періоду ... },
  "income_current": { ... значення за звітний період ... }
}

Ключі балансу (balance_start та balance_end):
  intangible_assets (р.1000), fixed_assets_net (р.1010), fixed_assets_gross (р.1011),
  accumulated_depreciation (р.1012), non_current_assets (р.1095), inventory (р.1100),
  receivables (р.1125), other_receivables (р.1155), current_investments (р.1160),
  cash (р.1165), current_assets (р.1195), total_assets (р.1300),
  total_equity (р.1495), long_term_liabilities (р.1595), short_term_loans (р.1600),
  current_portion_lt_debt (р.1610), accounts_payable (р.1615),
  other_current_liabilities (р.1690), current_liabilities (р.1695)

Ключі звіту про фінансові результати (income_current):
  revenue (р.2000), cost_of_sales (р.2050), gross_profit (р.2090),
  operating_profit (р.2190), finance_costs (р.2250), profit_before_tax (р.2290),
  net_profit (р.2350), net_loss (р.2355), depreciation (р.2515)

Правила:
- Значення подавай числами без пробілів і без одиниць виміру.
- Від'ємні значення (у дужках у звітності) подавай зі знаком мінус.
- Якщо рядок відсутній у документах, не додавай ключ. Не вигадуй значень.
- total_assets, total_equity та net_profit (або net_loss) обов'язкові, якщо вони є в документах.
- Відповідь містить лише JSON без пояснень і без markdown.

--- ДОКУМЕНТИ ---
{documents}
`

const reportText = `Ти фінансовий аналітик, який готує висновок про контрагента.
Нижче наведено вже розраховані фінансові показники з формулами, значеннями,
оцінками (норма / увага / ризик) та нормативами. НЕ перераховуй показники і
НЕ змінюй значення: використовуй лише наведені дані.

Структура звіту:
1. Загальна інформація про компанію та період.
2. Аналіз за кожним блоком показників: ліквідність, фінансова стійкість,
   ділова активність, рух грошових коштів, структура балансу, рентабельність.
   Для кожного показника вкажи значення, норматив та оцінку.
3. Обмеження аналізу: показники, які не вдалося розрахувати, та причини.
4. Загальний висновок щодо фінансового стану контрагента і рівня ризику.

Формат відповіді: HTML-фрагмент (заголовки h2/h3, таблиці, списки) або markdown.
Не використовуй скрипти та стилі.

--- РОЗРАХУНКИ ---
{calculations}
`
