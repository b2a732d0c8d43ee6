package domain

import (
	"github.com/tnahs/hlts/internal/domain/knowledge"
)

type Attribute = knowledge.Attribute
type Tag = knowledge.Tag
type Collection = knowledge.Collection
type Origin = knowledge.Origin
type Topic = knowledge.Topic

type Individual = knowledge.Individual
type IndividualAka = knowledge.IndividualAka
type IndividualRef = knowledge.IndividualRef
type IndividualSummary = knowledge.IndividualSummary

type Source = knowledge.Source
type SourceIndividual = knowledge.SourceIndividual

type Node = knowledge.Node
type NodeTag = knowledge.NodeTag
type NodeCollection = knowledge.NodeCollection
type NodeTopic = knowledge.NodeTopic
type NodeRelation = knowledge.NodeRelation

type MergeEvent = knowledge.MergeEvent

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&Origin{},
		&Tag{},
		&Collection{},
		&Topic{},
		&Individual{},
		&IndividualAka{},
		&Source{},
		&SourceIndividual{},
		&Node{},
		&NodeTag{},
		&NodeCollection{},
		&NodeTopic{},
		&NodeRelation{},
		&MergeEvent{},
	}
}
