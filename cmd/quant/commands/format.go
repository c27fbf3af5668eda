package commands

import (
	"fmt"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}
