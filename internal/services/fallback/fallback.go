// Package fallback renders deterministic placeholder content for an outline
// item when remote generation is unavailable.
package fallback

import (
	"fmt"
	"strings"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
)

// Render returns template content for item. It never fails; an unknown
// content type renders as text.
func Render(item models.OutlineItem, contentType models.ContentType) string {
	if contentType == models.ContentTypeVideo {
		return Video(item)
	}
	return Text(item)
}

// Text renders a markdown tutorial skeleton with one section per step
func Text(item models.OutlineItem) string {
	lowerTitle := strings.ToLower(item.Title)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", item.Title)
	if item.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", item.Summary)
	}
	b.WriteString("## Overview\n")
	fmt.Fprintf(&b, "This tutorial will guide you through %s.\n\n", lowerTitle)
	b.WriteString("## Prerequisites\n")
	b.WriteString("- Basic understanding of the subject\n")
	b.WriteString("- Access to relevant tools/platforms\n\n")
	b.WriteString("## Steps\n\n")

	for i, step := range item.Steps {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, step)
		fmt.Fprintf(&b, "In this section, you'll learn how to %s.\n\n", strings.ToLower(step))
		b.WriteString("**Key points:**\n")
		fmt.Fprintf(&b, "- What %s is for\n", step)
		fmt.Fprintf(&b, "- How to apply %s\n", step)
		b.WriteString("- Common pitfalls\n\n")
		b.WriteString("**Example:**\n```\n// Add your code example here\n```\n\n")
	}

	b.WriteString("## Conclusion\n")
	fmt.Fprintf(&b, "You've successfully learned how to %s.\n\n", lowerTitle)
	b.WriteString("## Next Steps\n")
	b.WriteString("- Practice with real-world examples\n")
	b.WriteString("- Explore advanced features\n")
	b.WriteString("- Join community discussions\n\n")
	b.WriteString("---\n*Template content. Generation was unavailable; review and expand with specific examples and details.*\n")
	return b.String()
}

// Video renders a timed video script skeleton with one section per step
func Video(item models.OutlineItem) string {
	lowerTitle := strings.ToLower(item.Title)
	difficulty := item.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyBeginner
	}

	var b strings.Builder
	fmt.Fprintf(&b, "VIDEO SCRIPT: %s\n\n", item.Title)
	b.WriteString("DURATION: 5-10 minutes\n")
	fmt.Fprintf(&b, "DIFFICULTY: %s\n\n", difficulty)

	b.WriteString("INTRODUCTION (0:00 - 0:30)\n")
	fmt.Fprintf(&b, "- Hook: \"Have you ever wanted to learn how to %s?\"\n", lowerTitle)
	if item.Summary != "" {
		fmt.Fprintf(&b, "- What we'll cover: %s\n", item.Summary)
	}
	fmt.Fprintf(&b, "- What you'll learn: %s\n\n", strings.Join(item.Steps, ", "))

	b.WriteString("MAIN CONTENT\n")
	for i, step := range item.Steps {
		fmt.Fprintf(&b, "SECTION %d: %s (%d:00 - %d:00)\n", i+1, step, i+1, i+2)
		b.WriteString("- Visual: Screen recording/demonstration\n")
		fmt.Fprintf(&b, "- Narration: \"Let's start with %s...\"\n", strings.ToLower(step))
		b.WriteString("- Key points:\n")
		fmt.Fprintf(&b, "  * Point 1 about %s\n", step)
		fmt.Fprintf(&b, "  * Point 2 about %s\n", step)
		b.WriteString("  * Practical example\n")
		if i < len(item.Steps)-1 {
			fmt.Fprintf(&b, "- Transition: \"Now that we've covered %s, let's move to %s.\"\n\n", step, item.Steps[i+1])
		} else {
			fmt.Fprintf(&b, "- Transition: \"Now that we've covered %s, let's wrap up.\"\n\n", step)
		}
	}

	fmt.Fprintf(&b, "CONCLUSION (%d:00 - end)\n", len(item.Steps)+1)
	fmt.Fprintf(&b, "- Recap: \"Today we learned how to %s\"\n", lowerTitle)
	takeaways := item.Steps
	if len(takeaways) > 3 {
		takeaways = takeaways[:3]
	}
	fmt.Fprintf(&b, "- Key takeaways: %s\n", strings.Join(takeaways, ", "))
	b.WriteString("- Call to action: \"Try this yourself and share your results!\"\n\n")

	b.WriteString("PRODUCTION NOTES:\n")
	b.WriteString("- Add background music\n")
	b.WriteString("- Include screen recordings for each section\n")
	b.WriteString("- Add text overlays for key points\n")
	b.WriteString("- Include code examples where relevant\n\n")
	b.WriteString("---\n*Template script. Generation was unavailable; add specific examples, timings, and visual cues.*\n")
	return b.String()
}
