package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoll(t *testing.T) {
	ctx := context.Background()

	t.Run("условие выполняется не сразу", func(t *testing.T) {
		calls := 0
		err := Poll(ctx, time.Second, time.Millisecond, func() bool {
			calls++
			return calls == 3
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("нулевой таймаут проверяет один раз", func(t *testing.T) {
		calls := 0
		err := Poll(ctx, 0, time.Millisecond, func() bool {
			calls++
			return false
		})
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Equal(t, 1, calls)
	})

	t.Run("отмена контекста", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := Poll(cctx, time.Second, time.Millisecond, func() bool { return false })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPause(t *testing.T) {
	require.NoError(t, Pause(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Pause(ctx, time.Minute), context.Canceled)
}

func TestSelectors(t *testing.T) {
	tests := []struct {
		in    string
		xpath bool
		norm  string
	}{
		{"#btnProximo", false, "#btnProximo"},
		{"xpath=//span[text()='Criar']", true, "xpath=//span[text()='Criar']"},
		{"//a[@data-handler='1']", true, "xpath=//a[@data-handler='1']"},
		{"(//button)[1]", true, "xpath=(//button)[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, ok := SplitXPath(tt.in)
			assert.Equal(t, tt.xpath, ok)
			assert.Equal(t, tt.norm, NormalizeSelector(tt.in))
		})
	}

	assert.Error(t, ValidateSelector(""))
	assert.Error(t, ValidateSelector("https://palmasto.webiss.com.br"))
	assert.NoError(t, ValidateSelector("input[name='senha']"))

	assert.Equal(t, "'Sim'", XPathLiteral("Sim"))
	assert.Equal(t, `concat('d', "'", 'agua')`, XPathLiteral("d'agua"))
	assert.Equal(t, `'d\'agua'`, CSSString("d'agua"))
}

func TestVisibleText(t *testing.T) {
	html := `<html><head><style>.erro{}</style></head><body>
		<script>var msg = "erro";</script>
		<div style="display: none">Falha oculta</div>
		<p>Nota   fiscal
		emitida com sucesso</p></body></html>`

	text, err := VisibleText(html)
	require.NoError(t, err)
	assert.Equal(t, "Nota fiscal emitida com sucesso", text)
}

func TestDecodeOptions(t *testing.T) {
	opts, err := decodeOptions(`[{"index":0,"value":"","label":"Selecione"},{"index":1,"value":"42","label":"123.456"}]`)
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, "42", opts[1].Value)

	_, err = decodeOptions("not json")
	assert.Error(t, err)
}
