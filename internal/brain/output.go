package brain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wonny/cnquant/internal/contracts"
)

// WriteJSON writes v as indented UTF-8 JSON, creating parent dirs
func WriteJSON(path string, v interface{}) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	data, err := MarshalReport(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// MarshalReport encodes without HTML escaping so Chinese names stay readable
func MarshalReport(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderTable prints the ranked results as a plain-text table
func RenderTable(w io.Writer, report *contracts.ScreenReport) {
	fmt.Fprintf(w, "%4s %8s %-10s %8s %6s %6s %8s %6s %6s %-6s\n",
		"排名", "代码", "名称", "价格", "PE", "PB", "市值(亿)", "涨跌%", "综合分", "板块")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, r := range report.Results {
		fmt.Fprintf(w, "%4d %8s %-10s %8.2f %6.1f %6.2f %8.1f %6.2f %6.1f %-6s\n",
			r.Rank, r.Code, r.Name, orZero(r.Price), orZero(r.PE), orZero(r.PB),
			orZero(r.MktCapYi), orZero(r.ChangePct), r.Composite, r.Board)
	}
}

// RenderSummary prints the funnel line shown after a run
func RenderSummary(w io.Writer, report *contracts.ScreenReport, outputPath string) {
	fmt.Fprintf(w, "\n✅ 完成! %d只 → %d只(过滤后) → Top %d | 耗时 %.1fs\n",
		report.UniverseSize, report.AfterFilter, report.TopN, report.ElapsedSeconds)
	if outputPath != "" {
		fmt.Fprintf(w, "📁 结果: %s\n\n", outputPath)
	}
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
