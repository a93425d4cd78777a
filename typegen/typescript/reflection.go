package typescript

import (
	"fmt"
)

// ReflectionDocument is the metadata file written at the output root.
const ReflectionDocument = "reflection.json"

// ReflectionLoaderPath is the output path of the metadata loader.
const ReflectionLoaderPath = ReflectionModule + ".ts"

// GenerateReflectionLoader renders _reflection.ts, which builds the runtime
// metadata root from the companion document.
func GenerateReflectionLoader(runtimeModule string) Rendered {
	content := fmt.Sprintf(`%s
import * as %s from %s
import reflectionData from "./%s"

export const root = %s.Root.fromJSON(reflectionData)
`, Header, ProtobufAlias, jsString(runtimeModule), ReflectionDocument, ProtobufAlias)
	return Rendered{Path: ReflectionLoaderPath, Content: []byte(content)}
}
