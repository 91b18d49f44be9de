package memory

import "maps"

type Transaction struct {
	ID            string
	Date          string
	Libelle       string
	Payee         string
	Montant       string
	Categorie     string
	BankAccountID string
}

type Category struct {
	ID                string
	Name              string
	ExcludeFromTotals bool
}

type BankAccount struct {
	ID   string
	Name string
}

// Dataset is the backend data of one profile.
type Dataset struct {
	Categories           []Category
	BankAccounts         []BankAccount
	DefaultBankAccountID string
	Transactions         []Transaction
	Profile              map[string]any
}

func (d Dataset) clone() *Dataset {
	return &Dataset{
		Categories:           append([]Category(nil), d.Categories...),
		BankAccounts:         append([]BankAccount(nil), d.BankAccounts...),
		DefaultBankAccountID: d.DefaultBankAccountID,
		Transactions:         append([]Transaction(nil), d.Transactions...),
		Profile:              maps.Clone(d.Profile),
	}
}

// SampleDataset is a small CHF ledger over December 2025 and January 2026.
func SampleDataset() Dataset {
	return Dataset{
		Categories: []Category{
			{ID: "cat-alim", Name: "Alimentation"},
			{ID: "cat-loisir", Name: "Loisir"},
			{ID: "cat-logement", Name: "Logement"},
			{ID: "cat-transport", Name: "Transport"},
			{ID: "cat-virements", Name: "Virements internes", ExcludeFromTotals: true},
		},
		BankAccounts: []BankAccount{
			{ID: "acc-ubs", Name: "UBS"},
			{ID: "acc-revolut", Name: "Revolut"},
			{ID: "acc-epargne", Name: "Compte épargne"},
		},
		DefaultBankAccountID: "acc-ubs",
		Transactions: []Transaction{
			{ID: "tx-01", Date: "2025-12-02", Libelle: "MIGROS LAUSANNE", Payee: "Migros", Montant: "-84.20", Categorie: "Alimentation", BankAccountID: "acc-ubs"},
			{ID: "tx-02", Date: "2025-12-05", Libelle: "COOP-4815 RENENS", Payee: "Coop", Montant: "-42.75", Categorie: "Alimentation", BankAccountID: "acc-ubs"},
			{ID: "tx-03", Date: "2025-12-10", Libelle: "CINEMA PATHE", Payee: "Pathé", Montant: "-36.00", Categorie: "Loisir", BankAccountID: "acc-revolut"},
			{ID: "tx-04", Date: "2025-12-15", Libelle: "LOYER DECEMBRE", Payee: "Régie du Lac", Montant: "-1850.00", Categorie: "Logement", BankAccountID: "acc-ubs"},
			{ID: "tx-05", Date: "2025-12-25", Libelle: "SALAIRE DECEMBRE", Payee: "Employeur SA", Montant: "6200.00", BankAccountID: "acc-ubs"},
			{ID: "tx-06", Date: "2025-12-28", Libelle: "VIREMENT EPARGNE", Payee: "Compte épargne", Montant: "-500.00", Categorie: "Virements internes", BankAccountID: "acc-ubs"},
			{ID: "tx-07", Date: "2026-01-03", Libelle: "MIGROS MORGES", Payee: "Migros", Montant: "-63.40", Categorie: "Alimentation", BankAccountID: "acc-ubs"},
			{ID: "tx-08", Date: "2026-01-08", Libelle: "CFF ABONNEMENT", Payee: "CFF", Montant: "-340.00", Categorie: "Transport", BankAccountID: "acc-ubs"},
			{ID: "tx-09", Date: "2026-01-12", Libelle: "COFFEE LAB", Payee: "Coffee Lab", Montant: "-5.50", Categorie: "Loisir", BankAccountID: "acc-revolut"},
			{ID: "tx-10", Date: "2026-01-15", Libelle: "LOYER JANVIER", Payee: "Régie du Lac", Montant: "-1850.00", Categorie: "Logement", BankAccountID: "acc-ubs"},
			{ID: "tx-11", Date: "2026-01-20", Libelle: "COOP PRONTO", Payee: "Coop", Montant: "-18.90", Categorie: "Alimentation", BankAccountID: "acc-revolut"},
			{ID: "tx-12", Date: "2026-01-25", Libelle: "SALAIRE JANVIER", Payee: "Employeur SA", Montant: "6200.00", BankAccountID: "acc-ubs"},
		},
		Profile: map[string]any{
			"first_name": "Camille",
			"city":       "Lausanne",
			"canton":     "VD",
			"country":    "Suisse",
		},
	}
}
