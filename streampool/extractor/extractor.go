package extractor

import (
	"iter"
	"strings"

	"livecheck/streampool/model"
)

const (
	genreMarker  = "#genre#"
	extinfPrefix = "#EXTINF:"
)

// Extract lazily yields the candidates found in one source payload.
//
// A line is a candidate when it starts with "<scheme>://" for one of the allowed
// schemes (exact, case-sensitive). Besides bare URLs it understands "name,url" lines,
// "<category>,#genre#" section headers and M3U "#EXTINF" metadata. Everything else
// is dropped silently.
func Extract(src model.SourceDescriptor, schemes []string) iter.Seq[model.Candidate] {
	prefixes := make([]string, len(schemes))
	for i, s := range schemes {
		prefixes[i] = s + "://"
	}

	return func(yield func(model.Candidate) bool) {
		var (
			category     string
			pendingName  string
			pendingGroup string
		)
		for raw := range strings.Lines(src.Payload) {
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}

			if strings.HasPrefix(line, extinfPrefix) {
				pendingName, pendingGroup = parseExtinf(line)
				continue
			}
			if strings.HasPrefix(line, "#") {
				continue
			}

			if cat, ok := genreHeader(line); ok {
				category = cat
				pendingName, pendingGroup = "", ""
				continue
			}

			// EXTINF 元数据只属于紧随其后的一行, 无论该行是否被接受。
			extName, extGroup := pendingName, pendingGroup
			pendingName, pendingGroup = "", ""

			name, endpoint, ok := splitEndpoint(line, prefixes)
			if !ok {
				continue
			}
			if endpoint == line {
				name = extName
			}

			cat := category
			if extGroup != "" {
				cat = extGroup
			}

			if name == "" {
				name = model.UnknownName
			}
			c := model.Candidate{
				Endpoint: endpoint,
				Origin:   src.Address,
				Name:     name,
				Category: cat,
			}
			if !yield(c) {
				return
			}
		}
	}
}

// genreHeader recognises "<category>,#genre#".
func genreHeader(line string) (string, bool) {
	idx := strings.LastIndexByte(line, ',')
	if idx < 0 || strings.TrimSpace(line[idx+1:]) != genreMarker {
		return "", false
	}
	return strings.TrimSpace(line[:idx]), true
}

// splitEndpoint 返回行中的名称和地址。地址要么是整行, 要么从紧跟在
// 某个逗号之后的 "<scheme>://" 开始, 因此名称本身可以包含逗号。
func splitEndpoint(line string, prefixes []string) (name, endpoint string, ok bool) {
	if hasPrefix(line, prefixes) {
		return "", line, true
	}
	for i := 0; i < len(line); i++ {
		if line[i] != ',' {
			continue
		}
		rest := strings.TrimSpace(line[i+1:])
		if hasPrefix(rest, prefixes) {
			return strings.TrimSpace(line[:i]), rest, true
		}
	}
	return "", "", false
}

func hasPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// parseExtinf 解析 `#EXTINF:-1 tvg-name="x" group-title="y",显示名称`。
// 名称取属性之后第一个不在引号内的逗号后面的部分。
func parseExtinf(line string) (name, group string) {
	body := strings.TrimPrefix(line, extinfPrefix)
	inQuote := false
	split := -1
	for i, r := range body {
		if r == '"' {
			inQuote = !inQuote
			continue
		}
		if r == ',' && !inQuote {
			split = i
			break
		}
	}
	attrs := body
	if split >= 0 {
		attrs = body[:split]
		name = strings.TrimSpace(body[split+1:])
	}
	group = attrValue(attrs, "group-title")
	return name, group
}

func attrValue(attrs, key string) string {
	needle := key + `="`
	idx := strings.Index(attrs, needle)
	if idx < 0 {
		return ""
	}
	rest := attrs[idx+len(needle):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
