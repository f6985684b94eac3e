package executor

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
)

// TestChunkNestedLoopJoinDataDriven runs the scenarios in testdata/chunk_join.
//
//	define name=<rel>        one tuple of INT fields per input line
//	join outer=<rel> inner=<rel> chunk=<n> [left=<i>] [right=<j>] [op=<op>]
//	                         prints the joined tuples and the number of inner
//	                         rewinds
func TestChunkNestedLoopJoinDataDriven(t *testing.T) {
	rels := map[string][][]int64{}

	datadriven.RunTest(t, "testdata/chunk_join", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "define":
			var name string
			d.ScanArgs(t, "name", &name)
			var rows [][]int64
			for _, line := range strings.Split(strings.TrimSpace(d.Input), "\n") {
				if line == "" {
					continue
				}
				var row []int64
				for _, s := range strings.Fields(line) {
					v, err := strconv.ParseInt(s, 10, 64)
					require.NoError(t, err)
					row = append(row, v)
				}
				rows = append(rows, row)
			}
			rels[name] = rows
			return fmt.Sprintf("%d tuples\n", len(rows))

		case "join":
			var outerName, innerName string
			var chunkSize int
			d.ScanArgs(t, "outer", &outerName)
			d.ScanArgs(t, "inner", &innerName)
			d.ScanArgs(t, "chunk", &chunkSize)
			left, right, opStr := 0, 0, "="
			d.MaybeScanArgs(t, "left", &left)
			d.MaybeScanArgs(t, "right", &right)
			d.MaybeScanArgs(t, "op", &opStr)
			op, err := ParseOp(opStr)
			require.NoError(t, err)

			outer := intSource(t, "l", width(rels[outerName]), rels[outerName]...)
			inner := &countingExecutor{
				Executor: intSource(t, "r", width(rels[innerName]), rels[innerName]...),
			}
			j, err := NewChunkNestedLoopJoin(NewJoinPredicate(left, op, right), outer, inner, chunkSize)
			if err != nil {
				return fmt.Sprintf("error: %v\n", err)
			}
			out, err := Run(j)
			if err != nil {
				return fmt.Sprintf("error: %v\n", err)
			}
			var buf strings.Builder
			for _, tup := range out {
				buf.WriteString(tup.String())
				buf.WriteByte('\n')
			}
			fmt.Fprintf(&buf, "inner rewinds: %d\n", inner.rewinds)
			return buf.String()

		default:
			return fmt.Sprintf("unknown command: %s\n", d.Cmd)
		}
	})
}

func width(rows [][]int64) int {
	if len(rows) == 0 {
		return 1
	}
	return len(rows[0])
}
