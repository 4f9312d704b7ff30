package templates

import "fmt"

// reportAction asks the server for the selected report over SSE.
const reportAction = "@get('/sse/report')"

// chartEffect re-renders the canvas whenever the chart signal for the
// 1-based graph index changes.
func chartEffect(index int) string {
	return fmt.Sprintf("window.renderChart(el, $chart%d)", index)
}
