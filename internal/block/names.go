package block

// Well-known section names shared by the engine and the bundled stages.
const (
	Parameters  = "parameters"
	Data        = "data"
	Model       = "model"
	Covariance  = "covariance"
	Likelihood  = "likelihood"
	Likelihoods = "likelihoods"
)

// DefaultNoCopy lists the sections declared Shared in every new block. Values
// registered there by any module are visible pipeline-wide.
var DefaultNoCopy = []string{Parameters}
