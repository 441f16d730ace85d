package subgraph

import (
	"sort"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/aknsk/fedesub/internal/federation"
)

// entityTypeNames reports the concrete types participating in entity
// resolution: object types carrying @key themselves, or declaring an
// interface that carries it. Only one level of interfaces is consulted;
// interface-of-interface hierarchies do not propagate the marker.
func entityTypeNames(schema *ast.Schema) []string {
	marked := make(map[string]struct{})
	for _, def := range schema.Types {
		if def.Kind != ast.Object && def.Kind != ast.Interface {
			continue
		}
		if len(def.Directives.ForNames(federation.KeyDirectiveName)) != 0 {
			marked[def.Name] = struct{}{}
		}
	}

	var names []string
	for _, def := range schema.Types {
		if def.Kind != ast.Object {
			continue
		}
		if _, ok := marked[def.Name]; ok {
			names = append(names, def.Name)
			continue
		}
		for _, intf := range def.Interfaces {
			if _, ok := marked[intf]; ok {
				names = append(names, def.Name)
				break
			}
		}
	}

	sort.Strings(names)
	return names
}
