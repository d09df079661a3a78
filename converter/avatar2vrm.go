package converter

import (
	"context"
	"errors"

	"github.com/binzume/avatarconv/compose"
	"github.com/binzume/avatarconv/gltfutil"
	"github.com/binzume/avatarconv/scene"
	"github.com/binzume/avatarconv/vrm"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

const Generator = "avatarconv"

var ErrNoRoot = errors.New("avatar root is not set")

type Options struct {
	Logger *zap.Logger

	UniqueNodeNames             bool
	VertexColors                bool
	DisableVertexColorOnLilToon bool

	DisableBaking   bool
	DisableRimLight bool
	DisableMatCap   bool
	DisableOutline  bool
	// Compositor bakes lilToon textures. Default: compose.NewCPU()
	Compositor   compose.Compositor
	ImageOptions *gltfutil.ImageOptions

	SkipBoneValidation bool
	BoneMappings       []*BoneMapping

	Dynamics DynamicsPolicy
	// ExcludedSprings and ExcludedColliders match object names or paths.
	ExcludedSprings   []string
	ExcludedColliders []string

	// Overrides for the avatar components.
	Expressions *scene.ExpressionSettings
	Variants    []*scene.MaterialVariant
	Meta        *scene.Meta
}

// Result holds everything Convert reports besides the document.
type Result struct {
	Diagnostics    []*Diagnostic
	ExtensionsUsed []string
	Nodes          *NodeTable
}

func matchObjects(root *scene.Object, names []string) map[*scene.Object]bool {
	set := map[*scene.Object]bool{}
	if len(names) == 0 {
		return set
	}
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}
	root.Walk(func(obj *scene.Object) bool {
		if want[obj.Name] || want[obj.Path()] {
			set[obj] = true
		}
		return true
	})
	return set
}

// Convert converts the avatar to a glTF document with VRM 1.0 extensions.
func Convert(ctx context.Context, avatar *scene.Avatar, opts *Options) (*gltf.Document, *Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	if avatar == nil || avatar.Root == nil {
		return nil, nil, ErrNoRoot
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	diag := newDiagnostics(log)
	root := avatar.Root
	expressions, variants, meta := avatar.Expressions, avatar.Variants, avatar.Meta
	if opts.Expressions != nil {
		expressions = opts.Expressions
	}
	if opts.Variants != nil {
		variants = opts.Variants
	}
	if opts.Meta != nil {
		meta = opts.Meta
	}

	nodes := BuildNodeTable(root, opts.UniqueNodeNames)
	log.Debug("nodes", zap.Int("count", nodes.Len()))

	humanoid := (&humanoidTranslator{nodes: nodes, diag: diag, mappings: opts.BoneMappings}).Convert(avatar.Humanoid)
	if !opts.SkipBoneValidation {
		if err := validateHumanoid(&humanoid); err != nil {
			return nil, nil, err
		}
	}

	doc := &gltf.Document{
		Asset:  gltf.Asset{Version: "2.0", Generator: Generator},
		Nodes:  nodes.GLTFNodes(),
		Scenes: []*gltf.Scene{{Name: root.Name, Nodes: []uint32{0}}},
		Scene:  gltf.Index(0),
	}

	var tracker compose.Tracker
	defer tracker.Release()

	textures := newTextureExporter(doc, opts.ImageOptions, diag)
	materials := newMaterialTranslator(ctx, doc, textures, diag, opts, &tracker)
	meshes := newMeshAssembler(doc, nodes, diag, opts, materials.Material)
	meshes.ConvertAll(root)
	log.Debug("meshes", zap.Int("meshes", len(doc.Meshes)), zap.Int("materials", len(doc.Materials)), zap.Int("baked", tracker.Len()))
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var immobileID *uint32
	immobile := func() uint32 {
		if immobileID != nil {
			return *immobileID
		}
		id := nodes.AddExtra(immobileNodeName, 0)
		immobileID = &id
		n := nodes.Node(id)
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: n.Name, Translation: n.Translation, Rotation: n.Rotation, Scale: n.Scale})
		doc.Nodes[0].Children = append(doc.Nodes[0].Children, id)
		return id
	}
	constraints, constraintExt := (&constraintTranslator{nodes: nodes, diag: diag, immobile: immobile}).ConvertAll()
	for id, c := range constraints {
		node := doc.Nodes[id]
		if node.Extensions == nil {
			node.Extensions = gltf.Extensions{}
		}
		node.Extensions[vrm.NodeConstraintExtensionName] = c
	}

	springTranslator := &springBoneTranslator{
		nodes:             nodes,
		diag:              diag,
		policy:            opts.Dynamics,
		excludedSprings:   matchObjects(root, opts.ExcludedSprings),
		excludedColliders: matchObjects(root, opts.ExcludedColliders),
	}
	springBone, springExt := springTranslator.Convert()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	ext := vrm.NewVRM()
	ext.Humanoid = humanoid
	ext.Meta = convertMeta(meta, root.Name, textures)
	ext.LookAt = convertLookAt(root, avatar.Humanoid.Bone("Head"), avatar.Descriptor)
	exps := (&expressionTranslator{nodes: nodes, diag: diag, morphTargets: meshes.MorphTargets}).Convert(avatar.Descriptor, expressions)
	if !exps.IsEmpty() {
		ext.Expressions = exps
	}

	variantExt := (&variantTranslator{
		doc:       doc,
		nodes:     nodes,
		diag:      diag,
		material:  materials.Material,
		subMeshes: meshes.SubMeshPrimitives,
	}).Convert(variants)

	if doc.Extensions == nil {
		doc.Extensions = gltf.Extensions{}
	}
	doc.Extensions[vrm.ExtensionName] = ext
	if !springBone.IsEmpty() {
		doc.Extensions[vrm.SpringBoneExtensionName] = springBone
	}
	gltfutil.EnsureSampler(doc)

	used := NewExtensionSet(vrm.ExtensionName).Merge(
		textures.extensionsUsed, materials.extensionsUsed, constraintExt, springExt, variantExt)
	doc.ExtensionsUsed = used.Sorted()
	if len(textures.extensionsRequired) > 0 {
		doc.ExtensionsRequired = textures.extensionsRequired.Sorted()
	}

	log.Info("converted",
		zap.String("name", root.Name),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("springs", len(springBone.Springs)),
		zap.Int("constraints", len(constraints)),
		zap.Int("diagnostics", len(diag.list)))

	return doc, &Result{Diagnostics: diag.list, ExtensionsUsed: doc.ExtensionsUsed, Nodes: nodes}, nil
}
