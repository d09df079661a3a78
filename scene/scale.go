package scene

// Scale multiplies every length in the avatar by s: positions, vertices, blend shape deltas,
// bind pose translations, physics radii and collider offsets. Shared meshes are scaled once.
func (a *Avatar) Scale(s float32) {
	if s == 1 || s <= 0 || a.Root == nil {
		return
	}
	meshes := map[*Mesh]bool{}
	physBones := map[*PhysBone]bool{}
	colliders := map[*PhysBoneCollider]bool{}
	a.Root.Walk(func(o *Object) bool {
		o.Transform.Position = *o.Transform.Position.Scale(s)
		if o.Renderer != nil && o.Renderer.Mesh != nil && !meshes[o.Renderer.Mesh] {
			meshes[o.Renderer.Mesh] = true
			o.Renderer.Mesh.scale(s)
		}
		for _, pb := range o.PhysBones {
			if !physBones[pb] {
				physBones[pb] = true
				pb.Radius *= s
			}
			for _, c := range pb.Colliders {
				colliders[c] = true
			}
		}
		for _, c := range o.PhysBoneColliders {
			colliders[c] = true
		}
		return true
	})
	for c := range colliders {
		c.Radius *= s
		c.Height *= s
		c.Position = *c.Position.Scale(s)
	}
	if a.Descriptor != nil {
		a.Descriptor.ViewPosition = *a.Descriptor.ViewPosition.Scale(s)
	}
}

func (m *Mesh) scale(s float32) {
	for i := range m.Vertices {
		m.Vertices[i] = *m.Vertices[i].Scale(s)
	}
	for _, bs := range m.BlendShapes {
		for i := range bs.DeltaVertices {
			bs.DeltaVertices[i] = *bs.DeltaVertices[i].Scale(s)
		}
	}
	// column-major translation
	for i := range m.BindPoses {
		m.BindPoses[i][12] *= s
		m.BindPoses[i][13] *= s
		m.BindPoses[i][14] *= s
	}
}
