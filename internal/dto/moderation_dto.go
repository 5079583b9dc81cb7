package dto

type CreateReportRequest struct {
	Reason  string `json:"reason"`
	Details string `json:"details"`
}

type ResolveReportRequest struct {
	Outcome      string `json:"outcome"`
	Notes        string `json:"notes"`
	SignalAction string `json:"signal_action"`
}

type CreateClaimRequest struct {
	EvidenceDescription string `json:"evidence_description"`
}

type ResolveClaimRequest struct {
	Outcome string `json:"outcome"`
	Notes   string `json:"notes"`
}

type SetAccountStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type SetRoleRequest struct {
	Role string `json:"role"`
}
