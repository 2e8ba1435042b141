package pages

// Pages bundles the page objects of one actor.
type Pages struct {
	Login               *LoginPage
	CaseList            *CaseListPage
	CaseView            *CaseViewPage
	NoticeOfChange      *NoticeOfChangePage
	SubmitApplication   *SubmitApplicationEventPage
	MessageJudge        *MessageJudgeEventPage
	LegalCounsellors    *ManageLegalCounsellorsEventPage
	NoticeOfProceedings *NoticeOfProceedingsEventPage
	UploadDraftOrders   *UploadDraftOrdersEventPage
	ApproveOrders       *ApproveOrdersEventPage
	Children            *ChildrenEventPage
}

// New returns the page objects driven by a.
func New(a *Actor) *Pages {
	return &Pages{
		Login:               a.login,
		CaseList:            &CaseListPage{a: a},
		CaseView:            &CaseViewPage{a: a},
		NoticeOfChange:      &NoticeOfChangePage{a: a},
		SubmitApplication:   &SubmitApplicationEventPage{a: a},
		MessageJudge:        &MessageJudgeEventPage{a: a},
		LegalCounsellors:    &ManageLegalCounsellorsEventPage{a: a},
		NoticeOfProceedings: &NoticeOfProceedingsEventPage{JudgeAndLegalAdvisor{a: a, prefix: "noticeOfProceedings_"}},
		UploadDraftOrders:   &UploadDraftOrdersEventPage{a: a},
		ApproveOrders:       &ApproveOrdersEventPage{a: a},
		Children:            &ChildrenEventPage{a: a},
	}
}
