package record

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SourceRecord: данные одного boleto, извлечённые из PDF. Ядро только читает их.
type SourceRecord struct {
	DocumentName string `json:"document_name"`
	PageNumber   int    `json:"page_number"`
	TaxpayerID   string `json:"taxpayer_id"`
	PayerName    string `json:"payer_name"`
	Address      string `json:"address"`
	PostalCode   string `json:"postal_code,omitempty"`
	Amount       string `json:"amount"`
	DueDate      string `json:"due_date"` // dd/mm/yyyy
	Description  string `json:"description"`
	ClassCode    string `json:"class_code"`
	ActivityCode string `json:"activity_code"`
	CNAE         string `json:"cnae,omitempty"`

	// Необязательные поля tomador
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
}

// Key: естественный ключ записи для сверки выбора
type Key struct {
	DocumentName string `json:"document_name"`
	PageNumber   string `json:"page_number"`
	PayerName    string `json:"payer_name"`
}

func (r SourceRecord) Key() Key {
	return Key{
		DocumentName: r.DocumentName,
		PageNumber:   strconv.Itoa(r.PageNumber),
		PayerName:    r.PayerName,
	}
}

var nonDigits = regexp.MustCompile(`\D`)

// TaxpayerDigits: CPF/CNPJ без точек, дефисов и слэшей
func (r SourceRecord) TaxpayerDigits() string {
	return nonDigits.ReplaceAllString(r.TaxpayerID, "")
}

// Due разбирает срок оплаты (dd/mm/yyyy)
func (r SourceRecord) Due() (time.Time, error) {
	due, err := time.Parse("02/01/2006", strings.TrimSpace(r.DueDate))
	if err != nil {
		return time.Time{}, fmt.Errorf("неверная дата оплаты %q: %w", r.DueDate, err)
	}
	return due, nil
}

var classPattern = regexp.MustCompile(`TURMA:\s*([A-Z0-9]+)`)

// ClassFromDescription достаёт код класса (turma) из описания ("TURMA: G3")
func ClassFromDescription(desc string) string {
	m := classPattern.FindStringSubmatch(strings.ToUpper(desc))
	if m == nil {
		return ""
	}
	return m[1]
}
