// Package contributor binds one producer to a registry. An Adapter holds the
// producer's inputs (target system, declarations, defines, element count),
// pushes changed inputs on Evaluate, and keeps the composed output that the
// producer reads back:
//
//	COMPOSITESTRUCT=<packed declarations>
//	MAXPARTICLECOUNT=<element count of the system>
//	<each non-empty define of the system>
//	EMITTEROFFSET=<offset>   (only when the producer emits elements)
package contributor
