package schema

import (
	"encoding/xml"
	"fmt"
)

// The on-disk schema document format (spec §4.2/§6). Each build ships one
// document per entity type plus one shared <Aliases> document for named
// composite types referenced by multiple entities (e.g. a "StringList"
// alias used by several TempProperties). Composite resolution walks Alias
// references transitively; a reference cycle is rejected with
// ErrUnknownType.
//
//	<EntityType name="Avatar">
//	  <VariableLengthHeaderSize>1</VariableLengthHeaderSize>
//	  <Properties>
//	    <Property name="state" type="PICKLED"/>
//	  </Properties>
//	  <ClientMethods>
//	    <Method name="onChatMessage">
//	      <Arg type="INT64"/>
//	      <Arg type="STRING"/>
//	    </Method>
//	  </ClientMethods>
//	  <CellMethods/>
//	  <BaseMethods/>
//	  <TempProperties/>
//	</EntityType>

type xmlArg struct {
	Type       string `xml:"type,attr"`
	Alias      string `xml:"alias,attr"`
	Of         string `xml:"of,attr"`
	HeaderSize int    `xml:"headerSize,attr"`
	Count      int    `xml:"count,attr"`
}

type xmlMethod struct {
	Name string   `xml:"name,attr"`
	Args []xmlArg `xml:"Arg"`
}

type xmlProperty struct {
	Name       string `xml:"name,attr"`
	Type       string `xml:"type,attr"`
	Alias      string `xml:"alias,attr"`
	Of         string `xml:"of,attr"`
	HeaderSize int    `xml:"headerSize,attr"`
	Count      int    `xml:"count,attr"`
}

type xmlEntityType struct {
	XMLName                 xml.Name      `xml:"EntityType"`
	Name                    string        `xml:"name,attr"`
	VariableLengthHeaderSize int          `xml:"VariableLengthHeaderSize"`
	Properties              []xmlProperty `xml:"Properties>Property"`
	TempProperties          []xmlProperty `xml:"TempProperties>Property"`
	ClientMethods           []xmlMethod   `xml:"ClientMethods>Method"`
	CellMethods             []xmlMethod   `xml:"CellMethods>Method"`
	BaseMethods             []xmlMethod   `xml:"BaseMethods>Method"`
}

type xmlAliasDoc struct {
	XMLName xml.Name   `xml:"Aliases"`
	Alias   []xmlAlias `xml:"Alias"`
}

type xmlAlias struct {
	Name string `xml:"name,attr"`
	Arg  xmlArg `xml:"Arg"`
}

// ErrUnknownType is returned when a type name or alias reference cannot be
// resolved, including when resolution would require following a reference
// cycle (spec §4.2).
type ErrUnknownType struct {
	Name string
}

func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("schema: unknown or cyclic type %q", e.Name)
}

// aliasResolver resolves named composite types declared in an <Aliases>
// document, rejecting cycles via a recursion-in-progress set.
type aliasResolver struct {
	raw      map[string]xmlArg
	resolved map[string]TypeSpec
	visiting map[string]bool
}

func newAliasResolver(doc *xmlAliasDoc) *aliasResolver {
	r := &aliasResolver{
		raw:      make(map[string]xmlArg),
		resolved: make(map[string]TypeSpec),
		visiting: make(map[string]bool),
	}
	if doc != nil {
		for _, a := range doc.Alias {
			r.raw[a.Name] = a.Arg
		}
	}
	return r
}

func (r *aliasResolver) resolve(name string) (TypeSpec, error) {
	if t, ok := r.resolved[name]; ok {
		return t, nil
	}
	arg, ok := r.raw[name]
	if !ok {
		return TypeSpec{}, &ErrUnknownType{Name: name}
	}
	if r.visiting[name] {
		return TypeSpec{}, &ErrUnknownType{Name: name}
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	t, err := r.resolveArg(arg)
	if err != nil {
		return TypeSpec{}, err
	}
	r.resolved[name] = t
	return t, nil
}

func (r *aliasResolver) resolveArg(a xmlArg) (TypeSpec, error) {
	if a.Alias != "" {
		return r.resolve(a.Alias)
	}
	return parsePrimitive(a, r)
}

func parsePrimitive(a xmlArg, r *aliasResolver) (TypeSpec, error) {
	switch a.Type {
	case "INT8":
		return TypeSpec{Kind: KindInt8}, nil
	case "INT16":
		return TypeSpec{Kind: KindInt16}, nil
	case "INT32", "INT":
		return TypeSpec{Kind: KindInt32}, nil
	case "INT64", "LONG":
		return TypeSpec{Kind: KindInt64}, nil
	case "UINT8", "BYTE":
		return TypeSpec{Kind: KindUint8}, nil
	case "UINT16", "SHORT":
		return TypeSpec{Kind: KindUint16}, nil
	case "UINT32":
		return TypeSpec{Kind: KindUint32}, nil
	case "UINT64":
		return TypeSpec{Kind: KindUint64}, nil
	case "FLOAT32", "FLOAT":
		return TypeSpec{Kind: KindFloat32}, nil
	case "FLOAT64", "DOUBLE":
		return TypeSpec{Kind: KindFloat64}, nil
	case "BOOL":
		return TypeSpec{Kind: KindBool}, nil
	case "VECTOR2":
		return TypeSpec{Kind: KindVector2}, nil
	case "VECTOR3":
		return TypeSpec{Kind: KindVector3}, nil
	case "MAILBOX":
		return TypeSpec{Kind: KindMailbox}, nil
	case "PICKLED", "PYTHON":
		return TypeSpec{Kind: KindPickled}, nil
	case "STRING":
		hs := a.HeaderSize
		if hs == 0 {
			hs = 1
		}
		return TypeSpec{Kind: KindString, HeaderSize: hs}, nil
	case "UTF16_STRING":
		hs := a.HeaderSize
		if hs == 0 {
			hs = 2
		}
		return TypeSpec{Kind: KindUTF16String, HeaderSize: hs}, nil
	case "FIXED_STRING":
		return TypeSpec{Kind: KindFixedString, Count: a.Count}, nil
	case "ARRAY":
		elem, err := r.resolveOf(a.Of)
		if err != nil {
			return TypeSpec{}, err
		}
		hs := a.HeaderSize
		if hs == 0 {
			hs = 1
		}
		return TypeSpec{Kind: KindArray, HeaderSize: hs, Elem: &elem}, nil
	case "FIXED_ARRAY":
		elem, err := r.resolveOf(a.Of)
		if err != nil {
			return TypeSpec{}, err
		}
		return TypeSpec{Kind: KindFixedArray, Count: a.Count, Elem: &elem}, nil
	default:
		if a.Alias != "" {
			return r.resolve(a.Alias)
		}
		return TypeSpec{}, &ErrUnknownType{Name: a.Type}
	}
}

func (r *aliasResolver) resolveOf(of string) (TypeSpec, error) {
	if of == "" {
		return TypeSpec{}, &ErrUnknownType{Name: "(missing 'of' on ARRAY)"}
	}
	return r.resolveArg(xmlArg{Type: of})
}

func buildMethod(m xmlMethod, r *aliasResolver) (MethodSpec, error) {
	out := MethodSpec{Name: m.Name, Args: make([]TypeSpec, 0, len(m.Args))}
	for _, a := range m.Args {
		t, err := r.resolveArg(a)
		if err != nil {
			return MethodSpec{}, fmt.Errorf("method %s: %w", m.Name, err)
		}
		out.Args = append(out.Args, t)
	}
	return out, nil
}

func buildProperty(p xmlProperty, r *aliasResolver) (PropertySpec, error) {
	arg := xmlArg{
		Type:       p.Type,
		Alias:      p.Alias,
		Of:         p.Of,
		HeaderSize: p.HeaderSize,
		Count:      p.Count,
	}
	t, err := r.resolveArg(arg)
	if err != nil {
		return PropertySpec{}, fmt.Errorf("property %s: %w", p.Name, err)
	}
	return PropertySpec{Name: p.Name, Type: t}, nil
}

// Load parses one <Aliases> document (may be nil/empty) and one or more
// <EntityType> documents into a build's EntityType table. Entities keep the
// order entityXMLs was supplied in — spec §4.2's wire TypeID addresses
// entity types by that declaration order, so Load must not reorder them.
func Load(aliasesXML []byte, entityXMLs [][]byte) (*EntityTypeTable, error) {
	var aliasDoc *xmlAliasDoc
	if len(aliasesXML) > 0 {
		aliasDoc = &xmlAliasDoc{}
		if err := xml.Unmarshal(aliasesXML, aliasDoc); err != nil {
			return nil, fmt.Errorf("schema: parsing Aliases document: %w", err)
		}
	}
	resolver := newAliasResolver(aliasDoc)

	out := newEntityTypeTable()
	for _, raw := range entityXMLs {
		var doc xmlEntityType
		if err := xml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("schema: parsing EntityType document: %w", err)
		}

		et := &EntityType{Name: doc.Name}
		for _, m := range doc.ClientMethods {
			spec, err := buildMethod(m, resolver)
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", doc.Name, err)
			}
			et.ClientMethods = append(et.ClientMethods, spec)
		}
		for _, m := range doc.CellMethods {
			spec, err := buildMethod(m, resolver)
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", doc.Name, err)
			}
			et.CellMethods = append(et.CellMethods, spec)
		}
		for _, m := range doc.BaseMethods {
			spec, err := buildMethod(m, resolver)
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", doc.Name, err)
			}
			et.BaseMethods = append(et.BaseMethods, spec)
		}
		for _, p := range doc.Properties {
			spec, err := buildProperty(p, resolver)
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", doc.Name, err)
			}
			et.Properties = append(et.Properties, spec)
		}
		for _, p := range doc.TempProperties {
			spec, err := buildProperty(p, resolver)
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", doc.Name, err)
			}
			et.TempProperties = append(et.TempProperties, spec)
		}

		out.add(et)
	}
	return out, nil
}
