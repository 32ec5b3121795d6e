package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	// Tagging Tools
	PDFTagFileDescription = `Make a PDF accessible to screen readers by adding tagged structure to every piece of text.

**When to use:** A PDF shows text on screen but assistive technology reads nothing, reads it out of order, or an accessibility checker reports "document is not tagged".

**Why it's useful:** Wraps each text-showing operator in its own marked content sequence with a unique MCID and builds the matching structure tree (StructTreeRoot, one structure element per content stream, ParentTree). What the page shows is unchanged.

**Examples:**
• Tag a report: "Tag annual-report.pdf" writes annual-report-tagged.pdf next to it
• Choose the output: "Tag scan.pdf into out/scan-accessible.pdf"
• Strict run: "Tag contract.pdf with on_error=abort so nothing is written if any stream fails"
• Re-tag: "Tag old-tagged.pdf with overwrite=true to replace its existing structure tree"

**Common workflows:**
1. Remediation: pdf_validate_file → pdf_structure_info → pdf_tag_file → pdf_structure_info on the output
2. Batch: pdf_search_directory with with_status=true → tag every file reported as untagged
3. Assurance: pdf_tag_file with verify=true → check the verification block for mismatched pages

**Best practices:** Leave on_error at "skip" for best-effort results and read the report's errors; streams with unsupported filters are left as they were.`

	PDFStructureInfoDescription = `Inspect the accessibility structure of a PDF document.

**When to use:** Before tagging to see whether a document already has a structure tree, or after tagging to confirm what was built.

**Why it's useful:** Reports page and content stream counts, whether the catalog has a StructTreeRoot and MarkInfo, the number of structure elements, marked content references, MCIDs, roles used and ParentTree entries.

**Examples:**
• Check a file: "Is brochure.pdf tagged?"
• Audit output: "How many structure elements does brochure-tagged.pdf have?"

**Common workflows:**
1. Triage: pdf_structure_info → tag only files where tagged is false
2. Verification: pdf_tag_file → pdf_structure_info on the output → compare MCID count with the tag report

**Best practices:** An encrypted document that forbids modification cannot be tagged; the permissions field shows why.`

	PDFValidateFileDescription = `Verify PDF file integrity and readability before processing.

**When to use:** Before tagging any PDF file, especially in automated workflows or when handling user uploads.

**Why it's useful:** Catches missing, empty, oversized and corrupted files early and reports the page count of readable ones.

**Examples:**
• Batch safety: "Validate all PDFs in /forms/ before bulk tagging"
• Upload verification: "Check user-uploaded contract.pdf is valid before tagging"

**Common workflows:**
1. Automated Processing: Validate → Tag if valid → Handle errors gracefully
2. File Quality Check: Validate → Report issues → Fix or reject bad files

**Best practices:** Always run this first in automated workflows.`

	// Search and Discovery Tools
	PDFSearchDirectoryDescription = `Discover and filter PDF files across directories with fuzzy search.

**When to use:** Need to find PDFs by name, explore the configured directory, or find which documents still need tagging.

**Why it's useful:** Locates documents without manual browsing; with with_status=true each match also reports whether it is already tagged.

**Examples:**
• Find invoices: "Search for files containing 'invoice' or '2024'"
• Remediation backlog: "List all PDFs in /archive/ with their tagging status"

**Common workflows:**
1. Batch Tagging: Search with status → Tag untagged files → Re-check status
2. Content Discovery: Explore directory → Inspect structure → Plan remediation

**Best practices:** with_status opens every match, so narrow large directories with a query first.`

	// Utility Tools
	PDFServerInfoDescription = `Get server status, tagging defaults, available tools, and directory contents.

**When to use:** Starting work with the server, troubleshooting, or checking which role, tag and failure policy apply by default.

**Why it's useful:** Provides an overview of server capabilities, current configuration and the PDF files in the configured directory.

**Examples:**
• System check: "Verify the server is ready before batch tagging"
• Defaults: "Which marked content tag will pdf_tag_file use?"

**Common workflows:**
1. Session Startup: Check server info → Verify capabilities → Plan tagging
2. Debugging: Review server status → Check directory paths → Verify tool availability

**Best practices:** Run at start of sessions, provides cached directory contents for quick overview.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_tag_file":         PDFTagFileDescription,
	"pdf_structure_info":   PDFStructureInfoDescription,
	"pdf_validate_file":    PDFValidateFileDescription,
	"pdf_search_directory": PDFSearchDirectoryDescription,
	"pdf_server_info":      PDFServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the names of all described tools in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
