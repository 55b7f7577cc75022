package browser

import (
	"encoding/json"
	"fmt"
)

// Скрипты общие для обоих драйверов. Форма (el, arg) => ...
const (
	jsValue = `(el) => (el.value === undefined || el.value === null) ? '' : String(el.value)`

	jsSetValue = `(el, v) => {
		el.value = v;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return String(el.value);
	}`

	jsEnabled = `(el) => !el.disabled && !el.hasAttribute('disabled')`

	jsEnable = `(el) => { el.removeAttribute('disabled'); el.disabled = false; return true; }`

	jsClick = `(el) => { el.click(); return true; }`

	jsOptions = `(el) => JSON.stringify(Array.from(el.options || []).map((o, i) => ({
		index: i,
		value: o.value,
		label: (o.text || '').trim(),
		disabled: !!o.disabled
	})))`

	jsClearOverlays = `() => {
		document.querySelectorAll('.select2-drop-mask, .modal-backdrop').forEach(e => e.remove());
		document.querySelectorAll('.select2-drop-active').forEach(e => { e.style.display = 'none'; });
		if (document.body) { document.body.classList.remove('modal-open'); }
		return true;
	}`
)

func decodeOptions(raw string) ([]Option, error) {
	if raw == "" {
		return nil, nil
	}
	var opts []Option
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return nil, fmt.Errorf("ошибка разбора вариантов списка: %w", err)
	}
	return opts, nil
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
