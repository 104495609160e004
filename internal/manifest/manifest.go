package manifest

// Namespaces used by Android manifests.
const (
	AndroidNamespaceURI      = "http://schemas.android.com/apk/res/android"
	DistributionNamespaceURI = "http://schemas.android.com/apk/distribution"
	ToolsNamespaceURI        = "http://schemas.android.com/tools"
)

// Element names.
const (
	ManifestElementName      = "manifest"
	ApplicationElementName   = "application"
	ActivityElementName      = "activity"
	ActivityAliasElementName = "activity-alias"
	ServiceElementName       = "service"
	ReceiverElementName      = "receiver"
	ProviderElementName      = "provider"
	MetaDataElementName      = "meta-data"
	ModuleElementName        = "module"
)

// Framework resource identifiers of the android attributes edited on manifests.
const (
	NameResourceID           uint32 = 0x01010003
	ValueResourceID          uint32 = 0x01010024
	VersionCodeResourceID    uint32 = 0x0101021b
	HasCodeResourceID        uint32 = 0x0101000c
	ExportedResourceID       uint32 = 0x01010010
	SplitNameResourceID      uint32 = 0x01010549
	IsFeatureSplitResourceID uint32 = 0x0101055b
)

// Attribute names.
const (
	PackageAttributeName        = "package"
	SplitAttributeName          = "split"
	NameAttributeName           = "name"
	ValueAttributeName          = "value"
	VersionCodeAttributeName    = "versionCode"
	SplitNameAttributeName      = "splitName"
	IsFeatureSplitAttributeName = "isFeatureSplit"
	TypeAttributeName           = "type"
)

var componentElementNames = map[string]bool{
	ActivityElementName:      true,
	ActivityAliasElementName: true,
	ServiceElementName:       true,
	ReceiverElementName:      true,
	ProviderElementName:      true,
}

// Manifest is an immutable Android manifest tree. Every edit returns a new manifest built from a
// private clone of the tree, so manifests can be shared freely between splits.
type Manifest struct {
	root *Element
}

// New wraps a copy of the given root element.
func New(root *Element) *Manifest {
	return &Manifest{root: root.Clone()}
}

// Option edits a manifest tree while it is being built.
type Option func(root *Element)

// Skeleton returns a minimal manifest for the given package with version code 1 and an empty
// application element, further edited by the options.
func Skeleton(pkg string, opts ...Option) *Manifest {
	root := NewElement(
		ManifestElementName,
		StringAttr("", PackageAttributeName, 0, pkg),
		IntAttr(AndroidNamespaceURI, VersionCodeAttributeName, VersionCodeResourceID, 1),
	)
	root.AddChild(NewElement(ApplicationElementName))
	for _, o := range opts {
		o(root)
	}
	return &Manifest{root: root}
}

// WithActivity adds an activity to the application element. A non-empty split name is recorded as
// the activity's android:splitName.
func WithActivity(name, splitName string) Option {
	return func(root *Element) {
		a := NewElement(ActivityElementName, StringAttr(AndroidNamespaceURI, NameAttributeName, NameResourceID, name))
		if splitName != "" {
			a.SetAttribute(StringAttr(AndroidNamespaceURI, SplitNameAttributeName, SplitNameResourceID, splitName))
		}
		application(root).AddChild(a)
	}
}

// WithModuleType declares the distribution module type, e.g. 'feature' or 'asset-pack'.
func WithModuleType(moduleType string) Option {
	return func(root *Element) {
		m := &Element{Namespace: DistributionNamespaceURI, Name: ModuleElementName}
		m.SetAttribute(StringAttr(DistributionNamespaceURI, TypeAttributeName, 0, moduleType))
		root.Children = append([]*Element{m}, root.Children...)
	}
}

// Root returns a copy of the manifest's root element.
func (m *Manifest) Root() *Element {
	return m.root.Clone()
}

func (m *Manifest) edit(fn func(root *Element)) *Manifest {
	c := m.root.Clone()
	fn(c)
	return &Manifest{root: c}
}

func (m *Manifest) PackageName() string {
	a, _ := m.root.Attribute("", PackageAttributeName)
	return a.Value
}

// SplitID returns the value of the 'split' attribute of the manifest element.
func (m *Manifest) SplitID() (string, bool) {
	a, ok := m.root.Attribute("", SplitAttributeName)
	return a.Value, ok
}

// WithSplitID sets the 'split' attribute. An empty id removes it.
func (m *Manifest) WithSplitID(id string) *Manifest {
	return m.edit(func(root *Element) {
		if id == "" {
			root.RemoveAttribute("", SplitAttributeName)
			return
		}
		root.SetAttribute(StringAttr("", SplitAttributeName, 0, id))
	})
}

func (m *Manifest) IsFeatureSplit() bool {
	a, ok := m.root.Attribute(AndroidNamespaceURI, IsFeatureSplitAttributeName)
	return ok && a.Bool()
}

// WithFeatureSplit sets android:isFeatureSplit.
func (m *Manifest) WithFeatureSplit(isFeature bool) *Manifest {
	return m.edit(func(root *Element) {
		root.SetAttribute(BoolAttr(AndroidNamespaceURI, IsFeatureSplitAttributeName, IsFeatureSplitResourceID, isFeature))
	})
}

// ModuleType returns the declared distribution module type, if any.
func (m *Manifest) ModuleType() (string, bool) {
	for _, c := range m.root.Children {
		if c.Namespace == DistributionNamespaceURI && c.Name == ModuleElementName {
			a, ok := c.Attribute(DistributionNamespaceURI, TypeAttributeName)
			return a.Value, ok
		}
	}
	return "", false
}

// Components returns copies of the application components (activities, aliases, services,
// receivers and providers) in document order.
func (m *Manifest) Components() []*Element {
	app := m.root.ChildElement(ApplicationElementName)
	if app == nil {
		return nil
	}
	var cs []*Element
	for _, c := range app.Children {
		if componentElementNames[c.Name] {
			cs = append(cs, c.Clone())
		}
	}
	return cs
}

// WithoutSplitNames removes android:splitName from every component.
func (m *Manifest) WithoutSplitNames() *Manifest {
	return m.edit(func(root *Element) {
		app := root.ChildElement(ApplicationElementName)
		if app == nil {
			return
		}
		for _, c := range app.Children {
			if componentElementNames[c.Name] {
				c.RemoveAttribute(AndroidNamespaceURI, SplitNameAttributeName)
			}
		}
	})
}

// WithoutUnknownSplitComponents deletes every component whose android:splitName is not one of the
// known split names. Components without a split name are kept.
func (m *Manifest) WithoutUnknownSplitComponents(known map[string]bool) *Manifest {
	return m.edit(func(root *Element) {
		app := root.ChildElement(ApplicationElementName)
		if app == nil {
			return
		}
		app.RemoveChildren(func(c *Element) bool {
			if !componentElementNames[c.Name] {
				return false
			}
			a, ok := c.Attribute(AndroidNamespaceURI, SplitNameAttributeName)
			return ok && !known[a.Value]
		})
	})
}

// MetadataValue returns the android:value of the application's <meta-data> entry with the given
// android:name.
func (m *Manifest) MetadataValue(key string) (string, bool) {
	app := m.root.ChildElement(ApplicationElementName)
	if app == nil {
		return "", false
	}
	for _, md := range app.ChildElements(MetaDataElementName) {
		if n, ok := md.Attribute(AndroidNamespaceURI, NameAttributeName); ok && n.Value == key {
			v, ok := md.Attribute(AndroidNamespaceURI, ValueAttributeName)
			return v.Value, ok
		}
	}
	return "", false
}

// WithMetadata sets a <meta-data> entry under the application element, replacing the value of an
// existing entry with the same key.
func (m *Manifest) WithMetadata(key, value string) *Manifest {
	return m.edit(func(root *Element) {
		app := application(root)
		val := StringAttr(AndroidNamespaceURI, ValueAttributeName, ValueResourceID, value)
		for _, md := range app.ChildElements(MetaDataElementName) {
			if n, ok := md.Attribute(AndroidNamespaceURI, NameAttributeName); ok && n.Value == key {
				md.SetAttribute(val)
				return
			}
		}
		app.AddChild(NewElement(
			MetaDataElementName,
			StringAttr(AndroidNamespaceURI, NameAttributeName, NameResourceID, key),
			val,
		))
	})
}

// application returns the application element, creating it if needed.
func application(root *Element) *Element {
	if app := root.ChildElement(ApplicationElementName); app != nil {
		return app
	}
	app := NewElement(ApplicationElementName)
	root.AddChild(app)
	return app
}
