package schema

import "testing"

const aliasesFixture = `<Aliases>
  <Alias name="DamageList">
    <Arg type="ARRAY" of="FLOAT32" headerSize="1"/>
  </Alias>
  <Alias name="CycleA">
    <Arg alias="CycleB"/>
  </Alias>
  <Alias name="CycleB">
    <Arg alias="CycleA"/>
  </Alias>
</Aliases>`

const avatarFixture = `<EntityType name="Avatar">
  <Properties>
    <Property name="state" type="PICKLED"/>
    <Property name="damages" alias="DamageList"/>
  </Properties>
  <TempProperties>
    <Property name="isHidden" type="BOOL"/>
  </TempProperties>
  <ClientMethods>
    <Method name="onChatMessage">
      <Arg type="INT64"/>
      <Arg type="UINT8"/>
      <Arg type="STRING"/>
    </Method>
    <Method name="onRibbon">
      <Arg type="INT8"/>
    </Method>
  </ClientMethods>
  <CellMethods/>
  <BaseMethods/>
</EntityType>`

const cyclicFixture = `<EntityType name="Bad">
  <Properties>
    <Property name="loop" alias="CycleA"/>
  </Properties>
</EntityType>`

func TestLoad_BasicEntity(t *testing.T) {
	types, err := Load([]byte(aliasesFixture), [][]byte{[]byte(avatarFixture)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	avatar, ok := types.ByName("Avatar")
	if !ok {
		t.Fatalf("missing Avatar entity type")
	}

	if len(avatar.Properties) != 2 {
		t.Fatalf("Properties = %d, want 2", len(avatar.Properties))
	}
	if avatar.Properties[0].Name != "state" || avatar.Properties[0].Type.Kind != KindPickled {
		t.Fatalf("Properties[0] = %+v", avatar.Properties[0])
	}
	damages := avatar.Properties[1].Type
	if damages.Kind != KindArray || damages.Elem == nil || damages.Elem.Kind != KindFloat32 {
		t.Fatalf("Properties[1].Type = %+v", damages)
	}

	if len(avatar.TempProperties) != 1 || avatar.TempProperties[0].Name != "isHidden" {
		t.Fatalf("TempProperties = %+v", avatar.TempProperties)
	}

	m, ok := avatar.MethodByIndex(0)
	if !ok || m.Name != "onChatMessage" || len(m.Args) != 3 {
		t.Fatalf("MethodByIndex(0) = %+v, ok=%v", m, ok)
	}
	if _, ok := avatar.MethodByIndex(99); ok {
		t.Fatalf("MethodByIndex(99) should be out of range")
	}
}

func TestLoad_CycleRejected(t *testing.T) {
	_, err := Load([]byte(aliasesFixture), [][]byte{[]byte(cyclicFixture)})
	if err == nil {
		t.Fatalf("expected a cycle error")
	}
	var target *ErrUnknownType
	if !asErrUnknownType(err, &target) {
		t.Fatalf("expected ErrUnknownType in chain, got %v", err)
	}
}

// asErrUnknownType unwraps err looking for an *ErrUnknownType, mirroring
// errors.As without importing it twice in this small test file.
func asErrUnknownType(err error, target **ErrUnknownType) bool {
	for err != nil {
		if e, ok := err.(*ErrUnknownType); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// TestLoad_PreservesDeclarationOrder confirms Load/TypeNames hand back
// entity types in the order their documents were supplied, not sorted by
// name — EntityCreate's wire TypeID addresses them by that order (spec
// §4.2), and "Zeppelin" is supplied before "Avatar" so an alphabetical sort
// would silently break this if it crept back in.
func TestLoad_PreservesDeclarationOrder(t *testing.T) {
	zep := `<EntityType name="Zeppelin"><Properties/></EntityType>`
	avatar := `<EntityType name="Avatar"><Properties/></EntityType>`
	types, err := Load(nil, [][]byte{[]byte(zep), []byte(avatar)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	reg := NewRegistry()
	reg.Register(Build("0,12,8,0"), types)

	names, err := reg.TypeNames(Build("0,12,8,0"))
	if err != nil {
		t.Fatalf("TypeNames: %v", err)
	}
	if len(names) != 2 || names[0] != "Zeppelin" || names[1] != "Avatar" {
		t.Fatalf("TypeNames = %v, want [Zeppelin Avatar]", names)
	}
}

func TestRegistry_VersionUnknown(t *testing.T) {
	reg := NewRegistry()
	types, err := Load([]byte(aliasesFixture), [][]byte{[]byte(avatarFixture)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	reg.Register(Build("0,12,8,0"), types)

	if _, err := reg.EntityByName(Build("0,12,8,0"), "Avatar"); err != nil {
		t.Fatalf("EntityByName: %v", err)
	}
	if _, err := reg.ForBuild(Build("0,99,0,0")); err == nil {
		t.Fatalf("expected ErrVersionUnknown")
	}

	builds := reg.Builds()
	if len(builds) != 1 || builds[0] != Build("0,12,8,0") {
		t.Fatalf("Builds() = %v", builds)
	}
}
