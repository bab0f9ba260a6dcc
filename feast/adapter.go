package feast

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/conv"
)

// Adapter 把 Feast Client 适配成领域层的 core.FeatureService。
//
// 实体键固定为 product_id，特征值只保留可转为 float64 的数值特征。
type Adapter struct {
	Client  Client
	Project string
}

func NewAdapter(client Client, project string) *Adapter {
	return &Adapter{Client: client, Project: project}
}

func (a *Adapter) GetProductFeatures(
	ctx context.Context,
	productIDs []string,
	features []string,
) (map[string]map[string]float64, error) {
	if a.Client == nil || len(productIDs) == 0 || len(features) == 0 {
		return map[string]map[string]float64{}, nil
	}

	entityRows := make([]map[string]interface{}, len(productIDs))
	for i, id := range productIDs {
		entityRows[i] = map[string]interface{}{"product_id": id}
	}

	resp, err := a.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   features,
		EntityRows: entityRows,
		Project:    a.Project,
	})
	if err != nil {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeUnavailable,
			"feast online features: "+err.Error())
	}

	out := make(map[string]map[string]float64, len(productIDs))
	for i, fv := range resp.FeatureVectors {
		if i >= len(productIDs) {
			break
		}
		out[productIDs[i]] = conv.MapToFloat64(fv.Values)
	}
	return out, nil
}

var _ core.FeatureService = (*Adapter)(nil)
