package agent

import (
	"fmt"

	"github.com/switchkit/switchboard/core"
	"github.com/switchkit/switchboard/knowledge"
	"github.com/switchkit/switchboard/logging"
	"github.com/switchkit/switchboard/provider"
	"github.com/switchkit/switchboard/tool"
)

const triageInstructions = `You are a project management triage agent. Your role is to:
1. Understand the user's request
2. Route them to the appropriate specialized agent
3. Use the transfer tools to delegate tasks

Available specialized agents:
- Planning Agent: For PMI-compliant project management plans and best practices
- Quality Agent: For quality assurance and project reviews
- User Stories Agent: For generating comprehensive user stories with EARS notation acceptance criteria
- User Profiler Agent: For learning about the user's role, experience and expectations
- Human operator: For complex requests requiring human intervention

Always be helpful and professional. Route users to the most appropriate agent.`

const planningInstructions = `You are a certified Project Management Professional (PMP) agent specializing in PMI best practices. Your role is to:

1. Guide users through PMI project management standards and best practices
2. Help create comprehensive, PMI-compliant project management plans
3. Educate users on the PMBOK Guide framework and its application
4. Use the knowledge tools to create, retrieve and revise project data
5. Transfer back to triage if the request is outside your scope or when the user is satisfied with the project data

## RULES
1. Always follow PMI standards and best practices. Be thorough, professional, and educational.
2. When creating project management plans, ensure they include all essential PMI components such as scope, schedule, cost, quality, risk, communication, and stakeholder management.
3. Use get_entity_types to discover the available entity types before creating entities. Don't create any entity below the Scope level like Epic, UserStory or Task.
4. When the project data is complete, ask the user if they would like to save it; save with create_entity or update_entity only after they confirm.
5. If the user would not like to save the data, use transfer_back_to_triage to return to the triage agent.`

const userStoriesInstructions = `You are a User Stories Gathering Agent specializing in creating comprehensive user stories with EARS (Easy Approach to Requirements Syntax) notation acceptance criteria.

Your expertise includes:
1. Unpacking high-level requirements into detailed, actionable user stories
2. Generating EARS notation acceptance criteria covering ubiquitous, event-driven, state-driven and unwanted-behavior requirements
3. Covering edge cases that developers typically handle: invalid inputs, rate limiting, error recovery, performance, accessibility
4. Creating comprehensive story sets for complex systems

When generating user stories, always:
- Follow the 'As a... I want... So that...' format
- Include multiple acceptance criteria per story
- Consider different user roles and permissions
- Address both happy path and edge cases

After generating the user stories, ask the user if the set is complete. If the user is satisfied, use transfer_back_to_triage to return to the triage agent.`

const qualityInstructions = `You are a project quality agent. Your role is to:
1. Help users review project quality
2. Conduct quality assessments using the knowledge tools to inspect project data
3. Transfer back to triage if the request is outside your scope

Always be thorough and quality-focused. Maintain high standards.`

const userProfilerInstructions = `You are a User Profiler agent. Your role is to understand the user's capabilities and knowledge so other agents can tune their tone and questions.

## RULES
1. Be friendly and conversational.
2. Ask one question at a time.
3. Start by asking the user about their role in the project.
4. Then, ask about their experience with similar projects.
5. Then, ask about their skills.
6. Finally, ask about their expectations.
7. When the profile is complete, ask the user if they would like to save it.
8. If they would, save it as a Person entity with create_entity.
9. If they would not, use transfer_back_to_triage to return to the triage agent.`

// TeamOptions configure the standard team.
type TeamOptions struct {
	Logger    logging.Logger
	Knowledge *knowledge.Service
}

// Team builds the standard project-management team: triage, planning,
// user_stories, quality and user_profiler, each backed by a ModelHandler on
// the given provider. Triage fans out to every specialist plus human
// escalation; every specialist can hand back to triage. When a knowledge
// service is configured its tools are wired into the agents that persist or
// inspect project data.
func Team(client provider.CompletionClient, optFns ...func(o *TeamOptions)) ([]*Agent, error) {
	opts := TeamOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	var knowledgeTools []*tool.Spec
	if opts.Knowledge != nil {
		knowledgeTools = knowledge.Tools(opts.Knowledge)
	}

	backToTriage := tool.NewDelegateSpec(
		"transfer_back_to_triage",
		"Transfer back to the triage agent when the request is outside your scope or the user is satisfied.",
		core.TopicTriage,
	)

	triageTools, err := tool.NewSet(
		tool.TransferSpec(core.TopicPlanning, "Transfer to the planning agent for PMI-compliant project management plans."),
		tool.TransferSpec(core.TopicQuality, "Transfer to the quality agent for quality assurance and project reviews."),
		tool.TransferSpec(core.TopicUserStories, "Transfer to the user stories agent for user stories with EARS acceptance criteria."),
		tool.TransferSpec(core.TopicUserProfiler, "Transfer to the user profiler agent to capture the user's role, experience and expectations."),
		tool.EscalateSpec(),
	)
	if err != nil {
		return nil, fmt.Errorf("agent: build triage tools: %w", err)
	}

	specialistTools := func(extra ...*tool.Spec) (*tool.Set, error) {
		specs := append([]*tool.Spec{backToTriage}, extra...)
		return tool.NewSet(specs...)
	}

	planningTools, err := specialistTools(knowledgeTools...)
	if err != nil {
		return nil, fmt.Errorf("agent: build planning tools: %w", err)
	}
	storiesTools, err := specialistTools()
	if err != nil {
		return nil, fmt.Errorf("agent: build user stories tools: %w", err)
	}
	qualityTools, err := specialistTools(knowledgeTools...)
	if err != nil {
		return nil, fmt.Errorf("agent: build quality tools: %w", err)
	}
	profilerTools, err := specialistTools(knowledgeTools...)
	if err != nil {
		return nil, fmt.Errorf("agent: build user profiler tools: %w", err)
	}

	build := func(topic core.Topic, instructions, description string, tools *tool.Set) (*Agent, error) {
		handler := NewModelHandler(topic, client, instructions, func(o *ModelHandlerOptions) {
			o.Tools = tools
			o.Logger = opts.Logger
		})
		return New(topic, handler, func(o *Options) { o.Description = description })
	}

	specs := []struct {
		topic        core.Topic
		instructions string
		description  string
		tools        *tool.Set
	}{
		{core.TopicTriage, triageInstructions, "Understands user requests and routes them to the appropriate specialized agent.", triageTools},
		{core.TopicPlanning, planningInstructions, "A certified PMP agent responsible for PMI best practices and comprehensive project management planning.", planningTools},
		{core.TopicUserStories, userStoriesInstructions, "A specialized agent for generating comprehensive user stories with EARS notation acceptance criteria.", storiesTools},
		{core.TopicQuality, qualityInstructions, "A project quality agent responsible for quality assurance and project reviews.", qualityTools},
		{core.TopicUserProfiler, userProfilerInstructions, "A user profiler agent responsible for understanding the user's capabilities and knowledge.", profilerTools},
	}

	team := make([]*Agent, 0, len(specs))
	for _, s := range specs {
		a, err := build(s.topic, s.instructions, s.description, s.tools)
		if err != nil {
			return nil, err
		}
		team = append(team, a)
	}
	return team, nil
}
