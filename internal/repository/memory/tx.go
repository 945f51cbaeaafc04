package memory

import (
	"context"
	"contract-signing/internal/model"
	"contract-signing/internal/repository"
	"sort"
)

type tx struct {
	state *state
}

func (t *tx) codeTaken(code string, exceptID int64) bool {
	for id, c := range t.state.contracts {
		if id != exceptID && c.Code == code {
			return true
		}
	}
	return false
}

func (t *tx) InsertContract(ctx context.Context, c *model.Contract) error {
	if t.codeTaken(c.Code, 0) {
		return repository.ErrDuplicate
	}
	t.state.nextContractID++
	c.ID = t.state.nextContractID
	t.state.contracts[c.ID] = *c
	return nil
}

func (t *tx) GetContract(ctx context.Context, id int64) (model.Contract, error) {
	c, ok := t.state.contracts[id]
	if !ok {
		return model.Contract{}, repository.ErrNotFound
	}
	return c, nil
}

func (t *tx) ListContracts(ctx context.Context, filter repository.ContractFilter) ([]model.Contract, error) {
	var contracts []model.Contract
	for _, c := range t.state.contracts {
		if filter.OwnerID != 0 && c.OwnerID != filter.OwnerID {
			continue
		}
		contracts = append(contracts, c)
	}
	sort.Slice(contracts, func(i, j int) bool {
		if !contracts[i].CreatedAt.Equal(contracts[j].CreatedAt) {
			return contracts[i].CreatedAt.After(contracts[j].CreatedAt)
		}
		return contracts[i].ID > contracts[j].ID
	})
	return contracts, nil
}

func (t *tx) UpdateContract(ctx context.Context, c model.Contract) error {
	if _, ok := t.state.contracts[c.ID]; !ok {
		return repository.ErrNotFound
	}
	if t.codeTaken(c.Code, c.ID) {
		return repository.ErrDuplicate
	}
	t.state.contracts[c.ID] = c
	return nil
}

func (t *tx) DeleteContract(ctx context.Context, id int64) error {
	if _, ok := t.state.contracts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.state.contracts, id)
	return nil
}

func (t *tx) GetFiles(ctx context.Context, contractID int64) (model.DocumentVersionSet, error) {
	files, ok := t.state.files[contractID]
	if !ok {
		return model.DocumentVersionSet{ContractID: contractID}, nil
	}
	return files, nil
}

func (t *tx) ListFiles(ctx context.Context, contractIDs []int64) (map[int64]model.DocumentVersionSet, error) {
	result := make(map[int64]model.DocumentVersionSet, len(contractIDs))
	for _, id := range contractIDs {
		if files, ok := t.state.files[id]; ok {
			result[id] = files
		}
	}
	return result, nil
}

func (t *tx) PutFiles(ctx context.Context, files model.DocumentVersionSet) error {
	if _, ok := t.state.contracts[files.ContractID]; !ok {
		return repository.ErrNotFound
	}
	t.state.files[files.ContractID] = files
	return nil
}

func (t *tx) DeleteFiles(ctx context.Context, contractID int64) error {
	delete(t.state.files, contractID)
	return nil
}

func (t *tx) InsertApproval(ctx context.Context, a *model.Approval) error {
	if a.Status == model.ApprovalPending {
		if _, err := t.PendingApproval(ctx, a.ContractID, a.ApproverID); err == nil {
			return repository.ErrDuplicate
		}
	}
	t.state.nextApprovalID++
	a.ID = t.state.nextApprovalID
	t.state.approvals[a.ID] = cloneApproval(*a)
	return nil
}

func (t *tx) GetApproval(ctx context.Context, id int64) (model.Approval, error) {
	a, ok := t.state.approvals[id]
	if !ok {
		return model.Approval{}, repository.ErrNotFound
	}
	return cloneApproval(a), nil
}

func (t *tx) PendingApproval(ctx context.Context, contractID, approverID int64) (model.Approval, error) {
	pending := t.sortedApprovals(func(a model.Approval) bool {
		return a.ContractID == contractID && a.ApproverID == approverID && a.Status == model.ApprovalPending
	})
	if len(pending) == 0 {
		return model.Approval{}, repository.ErrNotFound
	}
	return pending[0], nil
}

func (t *tx) UpdateApproval(ctx context.Context, a model.Approval) error {
	if _, ok := t.state.approvals[a.ID]; !ok {
		return repository.ErrNotFound
	}
	t.state.approvals[a.ID] = cloneApproval(a)
	return nil
}

func (t *tx) CountPendingApprovals(ctx context.Context, contractID int64) (int, error) {
	count := 0
	for _, a := range t.state.approvals {
		if a.ContractID == contractID && a.Status == model.ApprovalPending {
			count++
		}
	}
	return count, nil
}

func (t *tx) ListApprovalsByApprover(ctx context.Context, approverID int64) ([]model.Approval, error) {
	return t.sortedApprovals(func(a model.Approval) bool { return a.ApproverID == approverID }), nil
}

func (t *tx) ListApprovalsByContract(ctx context.Context, contractID int64) ([]model.Approval, error) {
	return t.sortedApprovals(func(a model.Approval) bool { return a.ContractID == contractID }), nil
}

func (t *tx) sortedApprovals(keep func(model.Approval) bool) []model.Approval {
	var approvals []model.Approval
	for _, a := range t.state.approvals {
		if keep(a) {
			approvals = append(approvals, cloneApproval(a))
		}
	}
	sort.Slice(approvals, func(i, j int) bool {
		if !approvals[i].CreatedAt.Equal(approvals[j].CreatedAt) {
			return approvals[i].CreatedAt.After(approvals[j].CreatedAt)
		}
		return approvals[i].ID > approvals[j].ID
	})
	return approvals
}

func (t *tx) DeleteApprovals(ctx context.Context, contractID int64) error {
	for id, a := range t.state.approvals {
		if a.ContractID == contractID {
			delete(t.state.approvals, id)
		}
	}
	return nil
}

func (t *tx) GetUser(ctx context.Context, id int64) (model.User, error) {
	u, ok := t.state.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (t *tx) UpsertUser(ctx context.Context, u model.User) error {
	t.state.users[u.ID] = u
	return nil
}
