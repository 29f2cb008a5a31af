// Package pipeline provides the 8-stage in-order slot pipeline of an
// AlphaAHB core.
package pipeline

import "fmt"

// Stage identifies one pipeline stage.
type Stage int

// Pipeline stages, from youngest to oldest.
const (
	StageFetch Stage = iota
	StageDecode
	StageRename
	StageDispatch
	StageIssue
	StageExecute
	StageWriteback
	StageCommit
)

// StageCount is the number of pipeline stages.
const StageCount = int(StageCommit) + 1

var stageNames = [StageCount]string{
	StageFetch:     "fetch",
	StageDecode:    "decode",
	StageRename:    "rename",
	StageDispatch:  "dispatch",
	StageIssue:     "issue",
	StageExecute:   "execute",
	StageWriteback: "writeback",
	StageCommit:    "commit",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < StageCount {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}
