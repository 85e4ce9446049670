package v1

// Schema patch 1 adds lower-court case details for appellate dockets

func init() {
	patches.Register(
		1,
		`
-- ----------------------------------------------------------------
-- Name: search_originatingcourtinformation
-- Model: court.OriginatingCourtInformation
-- Growth: At most one row per appellate docket
-- ----------------------------------------------------------------
CREATE TABLE {{ .SchemaName | default "public"}}.search_originatingcourtinformation (
    id bigint GENERATED BY DEFAULT AS IDENTITY,
    date_created timestamp with time zone NOT NULL,
    date_modified timestamp with time zone NOT NULL,
    docket_number text NOT NULL,
    assigned_to_str text NOT NULL,
    ordering_judge_str text NOT NULL,
    court_reporter character varying(300) NOT NULL,
    date_disposed date,
    date_filed date,
    date_judgment date,
    date_judgment_eod date,
    date_filed_noa date,
    date_received_coa date
);
ALTER TABLE ONLY {{ .SchemaName | default "public"}}.search_originatingcourtinformation ADD CONSTRAINT search_originatingcourtinformation_pkey PRIMARY KEY (id);

COMMENT ON TABLE {{ .SchemaName | default "public"}}.search_originatingcourtinformation IS 'Details of the lower-court case an appellate docket arose from.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_originatingcourtinformation.docket_number IS 'Docket number in the court of origin.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_originatingcourtinformation.date_judgment_eod IS 'When judgment was entered on the originating docket.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_originatingcourtinformation.date_filed_noa IS 'When the notice of appeal was filed.';
COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_originatingcourtinformation.date_received_coa IS 'When the court of appeals received the case.';

-- search_docketevent mirrors search_docket and must gain the column in the
-- same patch.
ALTER TABLE {{ .SchemaName | default "public"}}.search_docket ADD COLUMN originating_court_information_id bigint;
ALTER TABLE {{ .SchemaName | default "public"}}.search_docketevent ADD COLUMN originating_court_information_id bigint;

CREATE UNIQUE INDEX search_docket_originating_court_information_id_idx ON {{ .SchemaName | default "public"}}.search_docket USING btree (originating_court_information_id) WHERE originating_court_information_id IS NOT NULL;

COMMENT ON COLUMN {{ .SchemaName | default "public"}}.search_docket.originating_court_information_id IS 'Links an appellate docket to details of the lower-court case it arose from. Null for non-appellate dockets.';
`,
	)
}
