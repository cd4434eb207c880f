package main

import (
	"golang.org/x/tools/go/analysis"

	"sestrack.app/tracking-server/tools/linters/enumvalidator"
)

type AnalyzerPlugin struct{}

func (*AnalyzerPlugin) GetAnalyzers() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		enumvalidator.Analyzer,
	}
}

func New(conf any) ([]*analysis.Analyzer, error) {
	return []*analysis.Analyzer{enumvalidator.Analyzer}, nil
}

// main is never called: this package is compiled with -buildmode=plugin,
// where the main function is ignored. It exists only so the package also
// builds under the default buildmode (go build ./...).
func main() {}
