package record

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFormat = errors.New("неподдерживаемый формат файла")

// Колонки файла выгрузки (как их пишет модуль извлечения из PDF)
const (
	colDocument    = "arquivo_pdf"
	colPage        = "pagina"
	colTaxpayer    = "cpf_cnpj"
	colPayer       = "nome_cliente"
	colAddress     = "endereco"
	colPostalCode  = "cep"
	colAmount      = "valor"
	colDueDate     = "vencimento"
	colDescription = "descricao"
	colClass       = "turma"
	colCNAE        = "cnae"
	colActivity    = "atividade"
	colPhone       = "telefone"
	colEmail       = "email"
	colNumber      = "numero"
	colComplement  = "complemento"
	colDistrict    = "bairro"
)

var requiredColumns = []string{colDocument, colPage, colPayer}

// LoadFile загружает записи из .csv или .xlsx
func LoadFile(path string) ([]SourceRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return LoadCSV(f)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadCSV читает CSV с разделителем ';' (UTF-8, BOM допускается).
// Если в заголовке нет ';', пробует ','.
func LoadCSV(r io.Reader) ([]SourceRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	delimiter := ';'
	firstLine, _, _ := bytes.Cut(data, []byte("\n"))
	if !bytes.ContainsRune(firstLine, ';') && bytes.ContainsRune(firstLine, ',') {
		delimiter = ','
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения CSV: %w", err)
	}
	return fromRows(rows)
}

// LoadXLSX читает первый лист книги Excel
func LoadXLSX(path string) ([]SourceRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия XLSX: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("в книге нет листов")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения листа %s: %w", sheets[0], err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) ([]SourceRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("файл пуст")
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("нет обязательной колонки %q", col)
		}
	}

	records := make([]SourceRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		if isBlank(row) {
			continue
		}

		page, err := strconv.Atoi(get(colPage))
		if err != nil {
			return nil, fmt.Errorf("строка %d: неверный номер страницы %q", n+2, get(colPage))
		}

		rec := SourceRecord{
			DocumentName: get(colDocument),
			PageNumber:   page,
			TaxpayerID:   get(colTaxpayer),
			PayerName:    get(colPayer),
			Address:      get(colAddress),
			PostalCode:   get(colPostalCode),
			Amount:       get(colAmount),
			DueDate:      get(colDueDate),
			Description:  get(colDescription),
			ClassCode:    strings.ToUpper(get(colClass)),
			ActivityCode: get(colActivity),
			CNAE:         get(colCNAE),
			Phone:        get(colPhone),
			Email:        get(colEmail),
			Number:       get(colNumber),
			Complement:   get(colComplement),
			District:     get(colDistrict),
		}
		if rec.ClassCode == "" {
			rec.ClassCode = ClassFromDescription(rec.Description)
		}
		records = append(records, rec)
	}

	return records, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
