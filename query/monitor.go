package query

import "github.com/parlancehq/parlance/core"

// QueryMonitor provides hooks to observe the query pipeline.
// Implement this interface to track intermediate steps during a query.
type QueryMonitor interface {
	Start(question string)
	AfterDocumentFilter(documentIDs []string)
	AfterRetrieval(matches []*core.VectorMatch)
	AfterSynthesis(answer string)
	GroundingRejected(answer string)
	Finish(answer *core.Answer)
}

// noopMonitor is a no-op implementation of QueryMonitor
type noopMonitor struct{}

var _ QueryMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                       {}
func (n *noopMonitor) AfterDocumentFilter(_ []string)       {}
func (n *noopMonitor) AfterRetrieval(_ []*core.VectorMatch) {}
func (n *noopMonitor) AfterSynthesis(_ string)              {}
func (n *noopMonitor) GroundingRejected(_ string)           {}
func (n *noopMonitor) Finish(_ *core.Answer)                {}
