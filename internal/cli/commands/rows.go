package commands

import (
	"fmt"
	"strconv"
	"strings"

	"emiteNota/internal/selection"
)

// ParseRows разбирает список строк: "I003", "3", "2-5", через запятую или пробел.
// Номера 1-based, как в обзоре.
func ParseRows(list string) ([]string, error) {
	fields := strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
	if len(fields) == 0 {
		return nil, fmt.Errorf("не указаны строки")
	}

	var ids []string
	for _, f := range fields {
		if strings.HasPrefix(strings.ToUpper(f), "I") {
			ids = append(ids, strings.ToUpper(f))
			continue
		}

		from, to, isRange := strings.Cut(f, "-")
		lo, err := strconv.Atoi(from)
		if err != nil || lo < 1 {
			return nil, fmt.Errorf("неверный номер строки %q", f)
		}
		hi := lo
		if isRange {
			hi, err = strconv.Atoi(to)
			if err != nil || hi < lo {
				return nil, fmt.Errorf("неверный диапазон %q", f)
			}
		}
		for n := lo; n <= hi; n++ {
			ids = append(ids, selection.RowID(n))
		}
	}
	return ids, nil
}
