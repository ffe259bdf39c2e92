package richtext

import (
	"strconv"
	"strings"
)

// BlocksToMarkdown converts the CMS "blocks" rich-text JSON (an array of
// nodes with `type` and `children`) into markdown. The boolean is false when
// v does not look like a blocks document.
func BlocksToMarkdown(v any) (string, bool) {
	nodes, ok := v.([]any)
	if !ok || len(nodes) == 0 {
		return "", false
	}
	if first, ok := nodes[0].(map[string]any); !ok || first["type"] == nil {
		return "", false
	}
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		node, ok := n.(map[string]any)
		if !ok {
			continue
		}
		if s := strings.TrimRight(block(node), "\n"); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n"), true
}

func block(node map[string]any) string {
	switch str(node["type"]) {
	case "heading":
		level := 2
		if l, ok := node["level"].(float64); ok && l >= 1 && l <= 6 {
			level = int(l)
		}
		return strings.Repeat("#", level) + " " + inline(node["children"])
	case "list":
		ordered := str(node["format"]) == "ordered"
		items, _ := node["children"].([]any)
		lines := make([]string, 0, len(items))
		for i, it := range items {
			item, ok := it.(map[string]any)
			if !ok {
				continue
			}
			marker := "- "
			if ordered {
				marker = strconv.Itoa(i+1) + ". "
			}
			lines = append(lines, marker+inline(item["children"]))
		}
		return strings.Join(lines, "\n")
	case "quote":
		return "> " + inline(node["children"])
	case "code":
		return "```\n" + inline(node["children"]) + "\n```"
	case "image":
		img, _ := node["image"].(map[string]any)
		if img == nil || str(img["url"]) == "" {
			return ""
		}
		return "![" + str(img["alternativeText"]) + "](" + str(img["url"]) + ")"
	default:
		return inline(node["children"])
	}
}

func inline(v any) string {
	children, _ := v.([]any)
	var sb strings.Builder
	for _, c := range children {
		child, ok := c.(map[string]any)
		if !ok {
			continue
		}
		switch str(child["type"]) {
		case "link":
			sb.WriteString("[" + inline(child["children"]) + "](" + str(child["url"]) + ")")
		case "text", "":
			text := str(child["text"])
			if text == "" {
				continue
			}
			if b, _ := child["bold"].(bool); b {
				text = "**" + text + "**"
			}
			if it, _ := child["italic"].(bool); it {
				text = "_" + text + "_"
			}
			sb.WriteString(text)
		default:
			sb.WriteString(inline(child["children"]))
		}
	}
	return sb.String()
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
