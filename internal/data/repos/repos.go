package repos

import (
	"gorm.io/gorm"

	"github.com/tnahs/hlts/internal/data/repos/knowledge"
	"github.com/tnahs/hlts/internal/platform/logger"
)

type TagRepo = knowledge.TagRepo
type CollectionRepo = knowledge.CollectionRepo
type OriginRepo = knowledge.OriginRepo
type TopicRepo = knowledge.TopicRepo

type IndividualRepo = knowledge.IndividualRepo
type IndividualAkaRepo = knowledge.IndividualAkaRepo

type SourceRepo = knowledge.SourceRepo
type SourceIndividualRepo = knowledge.SourceIndividualRepo
type SourceFilter = knowledge.SourceFilter

type NodeRepo = knowledge.NodeRepo
type NodeFilter = knowledge.NodeFilter
type NodeLinkRepo = knowledge.NodeLinkRepo
type NodeRelationRepo = knowledge.NodeRelationRepo

type MergeEventRepo = knowledge.MergeEventRepo

// Set bundles every repository the app wires. Aggregates and services take
// the individual repos they need from here.
type Set struct {
	Tags        TagRepo
	Collections CollectionRepo
	Origins     OriginRepo
	Topics      TopicRepo

	Individuals       IndividualRepo
	IndividualAkas    IndividualAkaRepo
	Sources           SourceRepo
	SourceIndividuals SourceIndividualRepo

	Nodes           NodeRepo
	NodeTags        NodeLinkRepo
	NodeCollections NodeLinkRepo
	NodeTopics      NodeLinkRepo
	NodeRelations   NodeRelationRepo

	MergeEvents MergeEventRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) *Set {
	return &Set{
		Tags:        knowledge.NewTagRepo(db, baseLog),
		Collections: knowledge.NewCollectionRepo(db, baseLog),
		Origins:     knowledge.NewOriginRepo(db, baseLog),
		Topics:      knowledge.NewTopicRepo(db, baseLog),

		Individuals:       knowledge.NewIndividualRepo(db, baseLog),
		IndividualAkas:    knowledge.NewIndividualAkaRepo(db, baseLog),
		Sources:           knowledge.NewSourceRepo(db, baseLog),
		SourceIndividuals: knowledge.NewSourceIndividualRepo(db, baseLog),

		Nodes:           knowledge.NewNodeRepo(db, baseLog),
		NodeTags:        knowledge.NewNodeTagRepo(db, baseLog),
		NodeCollections: knowledge.NewNodeCollectionRepo(db, baseLog),
		NodeTopics:      knowledge.NewNodeTopicRepo(db, baseLog),
		NodeRelations:   knowledge.NewNodeRelationRepo(db, baseLog),

		MergeEvents: knowledge.NewMergeEventRepo(db, baseLog),
	}
}
