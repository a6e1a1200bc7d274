package grammar

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngineRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Theta1 = 1.5

	_, err := NewEngine(cfg, NopLogger{})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEngineRunOnEmptyInputWarnsButSucceeds(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), NopLogger{})
	require.NoError(t, err)

	result, err := engine.Run(nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Warnings)
	require.ErrorIs(t, result.Warnings[0], ErrNoInput)
}

func TestEngineRunProducesOneTemplateForUniformLines(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), NopLogger{})
	require.NoError(t, err)

	lines := make([][]byte, 100)
	for i := range lines {
		lines[i] = []byte("word")
	}
	result, err := engine.Run(lines)
	require.NoError(t, err)
	require.Len(t, result.Templates, 1)
	require.Equal(t, "word", result.Templates[0])
}

func TestEngineRunProducesWordlistForThreeWords(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), NopLogger{})
	require.NoError(t, err)

	var lines [][]byte
	for _, w := range []string{"this", "that", "those"} {
		for i := 0; i < 34; i++ {
			lines = append(lines, []byte(w))
		}
	}
	result, err := engine.Run(lines)
	require.NoError(t, err)
	require.Contains(t, result.Program, "SequenceModelElement('sequence0', [FixedWordlistDataModelElement('fixed1', [b'those', b'this', b'that'])])")
}

func TestEngineRunClassifiesIntegersAsVariable(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), NopLogger{})
	require.NoError(t, err)

	lines := make([][]byte, 100)
	for i := range lines {
		lines[i] = []byte(fmt.Sprintf("%d", i))
	}
	result, err := engine.Run(lines)
	require.NoError(t, err)
	require.Contains(t, result.Program, "DecimalIntegerValueModelElement(")
}

func TestEngineRunClassifiesIPAddressesAsVariable(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), NopLogger{})
	require.NoError(t, err)

	lines := make([][]byte, 100)
	for i := range lines {
		lines[i] = []byte(fmt.Sprintf("10.0.0.%d", i))
	}
	result, err := engine.Run(lines)
	require.NoError(t, err)
	require.Contains(t, result.Program, "IpAddressDataModelElement(")
}

func TestEngineRunOnProxyLogCorpusEmitsMultipleClusters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Delimiters = []byte{' ', ',', ':'}
	engine, err := NewEngine(cfg, NopLogger{})
	require.NoError(t, err)

	lines := [][]byte{
		[]byte("proxy.cse.cuhk.edu.hk:5070 open through proxy proxy.cse.cuhk.edu.hk:5070 HTTPS"),
		[]byte("proxy.cse.cuhk.edu.hk:5070 close, 0 bytes sent, 0 bytes received, lifetime 00:01"),
		[]byte("proxy.cse.cuhk.edu.hk:5070 open through proxy p3p.sogou.com:80 HTTPS"),
		[]byte("proxy.cse.cuhk.edu.hk:5070 open through proxy 182.254.114.110:80 SOCKS5"),
		[]byte("182.254.114.110:80 open through proxy 182.254.114.110:80 HTTPS"),
	}
	result, err := engine.Run(lines)
	require.NoError(t, err)
	require.NotEmpty(t, result.Clusters)
	require.NotEmpty(t, result.TreeDump)
	require.NotEmpty(t, result.RunID)
}

func TestEngineRunIsConsistentAcrossRepeatedCalls(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), NopLogger{})
	require.NoError(t, err)

	lines := [][]byte{[]byte("alpha"), []byte("beta")}
	first, err := engine.Run(lines)
	require.NoError(t, err)
	second, err := engine.Run(lines)
	require.NoError(t, err)

	require.NotEqual(t, first.RunID, second.RunID)
	require.Equal(t, first.Templates, second.Templates)
}

func TestEngineRunWithVisualizeEmitsDot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Visualize = true
	engine, err := NewEngine(cfg, NopLogger{})
	require.NoError(t, err)

	result, err := engine.Run([][]byte{[]byte("hello")})
	require.NoError(t, err)
	require.Contains(t, result.Visualization, "digraph grammar {")
}
