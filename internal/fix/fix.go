// Package fix writes the narrative classifier's suggested remediation to a
// shell script. The command comes from a model, so the script is written
// without the execute bit; running it takes a deliberate chmod or "sh".
package fix

import (
	"fmt"
	"os"
	"strings"

	"github.com/dshills/mergescore/internal/classify"
)

const header = "#!/bin/sh\n# Suggested by mergescore. Review before running.\nset -e\n\n"

// WriteScript writes cmd to outPath as a non-executable shell script. If cmd
// is empty or "N/A", no file is created and written is false.
func WriteScript(cmd, outPath string) (written bool, err error) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" || cmd == classify.NoFix {
		return false, nil
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString(cmd)
	b.WriteString("\n")

	if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
		return false, fmt.Errorf("fix.WriteScript: %w", err)
	}
	return true, nil
}
