package index

import (
	"context"
	"github.com/redhatinsights/es-index-lifecycle/controllers/elasticsearch"
	"github.com/redhatinsights/es-index-lifecycle/controllers/metrics"
	"github.com/redhatinsights/es-index-lifecycle/controllers/utils"
	"strings"
)

//AliasUpdate lists the indices to bind to and unbind from an alias in a single request.
//At least one of Add or Remove must be non-empty.
type AliasUpdate struct {
	//Add binds the alias to these indices
	Add []string
	//Remove unbinds the alias from these indices
	Remove []string
}

//GetIndicesForAlias returns the indices bound to alias sorted by name.
//An alias without indices is not an error.
func (m *Manager) GetIndicesForAlias(ctx context.Context, alias string) ([]string, error) {
	if alias == "" {
		return nil, invalidArgument("alias name is required")
	}

	bindings, err := m.client.GetAlias(ctx, alias)
	if elasticsearch.IsNotFound(err) {
		log.Debug("Alias has no indices", "alias", alias)
		return []string{}, nil
	} else if err != nil {
		log.Error(err, "Unable to get indices for alias", "alias", alias)
		return nil, operationError(ErrAliasQuery, "get alias", alias, err)
	}

	return utils.SortedKeys(bindings), nil
}

//UpdateAlias applies the add action, then the remove action, in one atomic request
func (m *Manager) UpdateAlias(ctx context.Context, alias string, update AliasUpdate) error {
	if alias == "" {
		return invalidArgument("alias name is required")
	}
	if err := validateIndexNames("add", update.Add); err != nil {
		return err
	}
	if err := validateIndexNames("remove", update.Remove); err != nil {
		return err
	}
	if len(update.Add) == 0 && len(update.Remove) == 0 {
		return invalidArgument("alias update for %s has nothing to add or remove", alias)
	}

	var actions []elasticsearch.AliasAction
	if len(update.Add) > 0 {
		actions = append(actions, elasticsearch.AddAliasAction(alias, update.Add...))
	}
	if len(update.Remove) > 0 {
		actions = append(actions, elasticsearch.RemoveAliasAction(alias, update.Remove...))
	}

	err := m.client.UpdateAliases(ctx, actions)
	if err != nil {
		log.Error(err, "Unable to update alias", "alias", alias, "add", update.Add, "remove", update.Remove)
		return operationError(ErrAliasUpdate, "update alias", alias, err)
	}

	log.Debug("Updated alias", "alias", alias, "add", update.Add, "remove", update.Remove)
	return nil
}

func validateIndexNames(field string, names []string) error {
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return invalidArgument("%s contains an empty index name", field)
		}
	}
	return nil
}

//SetAliasToSingleIndex leaves alias pointing at target and nothing else, however many indices
//it pointed at before
func (m *Manager) SetAliasToSingleIndex(ctx context.Context, alias string, target string) error {
	if target == "" {
		return invalidArgument("target index is required")
	}

	current, err := m.GetIndicesForAlias(ctx, alias)
	if err != nil {
		return err
	}

	toRemove := utils.Difference(current, []string{target})
	err = m.UpdateAlias(ctx, alias, AliasUpdate{
		Add:    []string{target},
		Remove: toRemove,
	})
	metrics.AliasSwapped(alias, err)
	if err != nil {
		return err
	}

	log.Info("Alias points at a single index", "alias", alias, "index", target, "previous", current)
	return nil
}
