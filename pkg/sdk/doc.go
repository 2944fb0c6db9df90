// Package seqclass classifies sequences by searching them against one or
// more local BLAST databases and picking the best accepted hit per query.
//
// Bit scores are min-max normalized within each database before hits from
// different databases are compared, so a large database does not dominate
// a small one. A hit is accepted when its e-value is at most the e-value
// threshold and its percent identity is at least the identity threshold.
// Queries without an accepted hit are labelled Unclassified.
//
// # Searching local databases
//
//	client, _ := seqclass.New(ctx,
//	    seqclass.WithBlast("blastn", "/opt/blast/bin"),
//	    seqclass.WithThresholds(seqclass.Thresholds{EValue: 1e-5, Identity: 70}),
//	)
//	defer client.Close()
//	res, _ := client.Classify(ctx, queries, []seqclass.Database{
//	    {Name: "viral", Path: "/data/blast/viral"},
//	    {Name: "bacterial", Path: "/data/blast/bacterial"},
//	})
//	fmt.Println(res.Predictions["read_1"])
//
// # Classifying precomputed hits
//
//	res, _ := client.ClassifyHits(ctx, map[string][]seqclass.Hit{
//	    "read_1": {{Database: "viral", SubjectID: "NC_045512", BitScore: 812, EValue: seqclass.Float(0), Identity: seqclass.Float(99.8)}},
//	})
package seqclass
