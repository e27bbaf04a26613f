package pipeline

import (
	"log"
	"os"
	"strings"
)

var pipelineDebugEnabled = strings.EqualFold(os.Getenv("STUDYPILE_PIPELINE_DEBUG"), "1")

func debugLog(format string, args ...interface{}) {
	if pipelineDebugEnabled {
		log.Printf(format, args...)
	}
}
