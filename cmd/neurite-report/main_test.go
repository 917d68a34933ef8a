package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"

	"github.com/farcloser/neurite/internal/testutils"
)

func expectContains(substr string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if !strings.Contains(stdout, substr) {
			testing.Log(fmt.Sprintf("expected substring %q not found in output:\n%s", substr, stdout))
			testing.Fail()
		}
	}
}

func TestReportCLI(t *testing.T) {
	testCase := testutils.Setup(t, "neurite-report")

	folder := t.TempDir()
	testutils.WriteEDF(t, folder, "probe.edf", testutils.Fixture())

	report := filepath.Join(t.TempDir(), outputFile)

	testCase.SubTests = []*test.Case{
		{
			Description: "report without arguments fails",
			Command:     test.Command("report"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "report on a missing folder fails",
			Command:     test.Command("report", "--output", report, filepath.Join(folder, "missing")),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "report with an explicit zero threshold factor fails",
			Command:     test.Command("report", "--output", report, "--threshold-factor", "0", folder),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "report prints the digest",
			Command:     test.Command("report", "--output", report, folder),
			Expected: test.Expects(expect.ExitCodeSuccess, nil, expect.All(
				expectContains("Neurite Report Digest"),
				expectContains("Channels:      3 (1 silent)"),
			)),
		},
		{
			Description: "digest of a missing report fails",
			Command:     test.Command("digest", filepath.Join(folder, "missing.jsonl")),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
	}

	testCase.Run(t)
}
