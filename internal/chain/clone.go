package chain

// Clone returns a structural copy of the definition sharing no mutable
// containers with the original. Optimization passes mutate clones only.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}

	out := *d

	out.Nodes = make([]Node, len(d.Nodes))
	for i, node := range d.Nodes {
		copied := node
		copied.Config = cloneMap(node.Config)
		out.Nodes[i] = copied
	}

	out.Connections = make([]Connection, len(d.Connections))
	for i, conn := range d.Connections {
		copied := conn
		copied.DataMappings = append([]DataMapping(nil), conn.DataMappings...)
		out.Connections[i] = copied
	}

	out.InputSchema = cloneMap(d.InputSchema)
	out.OutputSchema = cloneMap(d.OutputSchema)
	out.Tags = append([]string(nil), d.Tags...)

	return &out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(in any) any {
	switch v := in.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return in
	}
}
