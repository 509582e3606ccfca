package service

import "campus-venue/internal/model"

// ── 预约生命周期规则 ──
//
//	pending ──ApproveConcept──▶ concept-approved ──(终版表格)──ApproveFinal──▶ approved
//	   │                              │
//	   └────────────Deny──────────────┴──▶ denied
//
// 归档（ArchivedAt）与状态正交，不属于状态迁移。

// checkApproveConcept 仅 pending 可进入 concept-approved
func checkApproveConcept(r *model.Reservation) error {
	if r.Status != model.StatusPending {
		return ErrNotPending
	}
	return nil
}

// checkUploadFinalForm 仅 concept-approved 可上传终版表格
func checkUploadFinalForm(r *model.Reservation) error {
	if r.Status != model.StatusConceptApproved {
		return ErrConceptNotApproved
	}
	return nil
}

// checkApproveFinal 只检查终版表格标志位，不检查状态字段
func checkApproveFinal(r *model.Reservation) error {
	if !r.FinalFormUploaded {
		return ErrFinalFormMissing
	}
	return nil
}

// checkDeny 非终态均可驳回
func checkDeny(r *model.Reservation) error {
	if isTerminal(r.Status) {
		return ErrAlreadyTerminal
	}
	return nil
}

func isTerminal(status string) bool {
	return status == model.StatusApproved || status == model.StatusDenied
}

// applyStatus 写入状态并维护 DenialReason 不变量
func applyStatus(r *model.Reservation, status string, denialReason *string) {
	r.Status = status
	if status == model.StatusDenied {
		r.DenialReason = denialReason
	} else {
		r.DenialReason = nil
	}
}

// setFinalForm 写入终版表格引用并同步标志位
func setFinalForm(r *model.Reservation, ref string) {
	r.FinalFormRef = &ref
	r.FinalFormUploaded = true
}

// ── 视图分区 ──

// Partitioned 预约展示分区
type Partitioned struct {
	Active    []model.Reservation
	Scheduled []model.Reservation
	Archived  []model.Reservation
}

// Partition 将预约分为 进行中 / 已排期 / 已归档 三类，不修改存储状态
//   - ArchivedAt 非空 → archived（无论状态，包括 approved）
//   - approved → scheduled
//   - 其余（pending / concept-approved / denied）→ active
func Partition(list []model.Reservation) Partitioned {
	p := Partitioned{
		Active:    []model.Reservation{},
		Scheduled: []model.Reservation{},
		Archived:  []model.Reservation{},
	}
	for _, r := range list {
		switch {
		case r.IsArchived():
			p.Archived = append(p.Archived, r)
		case r.Status == model.StatusApproved:
			p.Scheduled = append(p.Scheduled, r)
		default:
			p.Active = append(p.Active, r)
		}
	}
	return p
}

