package install

import (
	"strconv"
	"strings"

	parser "github.com/gpustack/gguf-parser-go"

	"modelrt/internal/coreerr"
	"modelrt/pkg/types"
)

// crossCheckGGUF reads a verified GGUF artifact's header and cross-checks
// it against the manifest's declared contextLength/quantization (§11
// domain stack: "the install pipeline reads its header after verification
// to cross-check the manifest's declared contextLength/quantization
// against the file, surfacing a CONFIG_ERROR on mismatch"). Only called
// for artifacts whose Format is "gguf" — never for other formats (A5).
func crossCheckGGUF(path string, item types.ModelItem, artifact types.Artifact) error {
	gguf, err := parser.ParseGGUFFile(path)
	if err != nil {
		return coreerr.InvalidModelFormat("unreadable gguf header: " + err.Error())
	}

	if fileCtx, ok := ggufContextLength(&gguf.Header); ok && item.ContextLength != 0 && fileCtx != item.ContextLength {
		return coreerr.ConfigError(
			"gguf header contextLength " + strconv.Itoa(fileCtx) + " does not match manifest contextLength " + strconv.Itoa(item.ContextLength),
		)
	}

	if item.Quantization != "" {
		fileQuant := strings.ToLower(strings.TrimSpace(gguf.Metadata().FileType.String()))
		wantQuant := strings.ToLower(strings.TrimSpace(item.Quantization))
		if fileQuant != "" && !strings.Contains(fileQuant, wantQuant) && !strings.Contains(wantQuant, fileQuant) {
			return coreerr.ConfigError(
				"gguf header quantization " + fileQuant + " does not match manifest quantization " + wantQuant,
			)
		}
	}
	return nil
}

// ggufContextLength scans the header's metadata key-values for the
// architecture-scoped "<arch>.context_length" entry, the convention gguf
// files use (mirrors the teacher pack's extractGGUFMetadata key-scan
// idiom, narrowed to the one key the selector/downgrade ladder cares
// about instead of dumping the whole header).
func ggufContextLength(header *parser.GGUFHeader) (int, bool) {
	for _, kv := range header.MetadataKV {
		if !strings.HasSuffix(kv.Key, ".context_length") {
			continue
		}
		switch kv.ValueType {
		case parser.GGUFMetadataValueTypeUint32:
			return int(kv.ValueUint32()), true
		case parser.GGUFMetadataValueTypeInt32:
			return int(kv.ValueInt32()), true
		case parser.GGUFMetadataValueTypeUint64:
			return int(kv.ValueUint64()), true
		case parser.GGUFMetadataValueTypeInt64:
			return int(kv.ValueInt64()), true
		}
	}
	return 0, false
}
