package pages

// Event names as they appear in the case view's "Next step" dropdown.
const (
	ActionSubmitCase                 = "Submit application"
	ActionUploadCMO                  = "Upload draft orders"
	ActionApproveOrders              = "Approve orders"
	ActionAllocatedJudge             = "Allocated Judge"
	ActionManageLegalRepresentatives = "Manage legal representatives"
	ActionMessageJudge               = "Send and reply to messages"
	ActionRemoveManagingOrganisation = "Remove managing organisation"
	ActionAddOrRemoveLegalCounsel    = "Add or remove legal counsel"
	ActionChangeCaseName             = "Change case name"
	ActionUploadDocuments            = "Upload documents"

	ActionAddFamilyManCaseNumber    = "Add case number"
	ActionSendToGatekeeper          = "Send to gatekeeper"
	ActionAmendChildren             = "Children"
	ActionAmendRespondents          = "Respondents"
	ActionAmendRepresentatives      = "Manage representatives"
	ActionManageHearings            = "Manage hearings"
	ActionCreateNoticeOfProceedings = "Create notice of proceedings"
	ActionPlacement                 = "Placement"
	ActionAddNote                   = "Add a case note"
	ActionManageOrders              = "Manage orders"
)

// Case type filters of the case list.
const (
	JurisdictionDescription = "Public Law"
	CaseTypeDescription     = "Care, supervision and EPOs"
)
