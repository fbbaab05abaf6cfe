package prompt

const documentParseTemplate = `请分析以下需求文档内容，并按照JSON格式输出结果：

文档内容：
{content}

请识别并分类以下内容：
1. functional_requirements: 系统必须完成的具体功能
2. non_functional_requirements: 性能、安全、可用性等要求
3. business_rules: 业务领域的特定规则
4. constraints: 技术、时间、资源等限制
5. stakeholders: 与系统相关的各种角色

要求：
- 每个条目都要引用原文中的依据
- 输出格式必须是纯JSON，不要有其他文字
- JSON结构参考：
{
  "functional_requirements": [
    {"description": "功能描述", "source": "原文依据"}
  ],
  "non_functional_requirements": [
    {"description": "非功能需求描述", "category": "性能/安全/可用性", "source": "原文依据"}
  ],
  "business_rules": [
    {"description": "业务规则描述", "source": "原文依据"}
  ],
  "constraints": [
    {"description": "约束描述", "source": "原文依据"}
  ],
  "stakeholders": [
    {"role": "角色名称", "description": "角色描述", "source": "原文依据"}
  ]
}
`

const userStoryTemplate = `请根据以下需求信息生成用户故事：

需求标题：{title}
需求描述：{description}
需求类型：{type}

请生成3-5个用户故事，每个用户故事包含：
- 角色 (role)
- 目标 (goal)
- 价值 (benefit)
- 验收标准 (acceptance_criteria，3-5条)

输出格式要求为纯JSON数组：
[
  {
    "role": "用户角色",
    "goal": "用户想要完成的目标",
    "benefit": "这样做的商业价值",
    "acceptanceCriteria": ["标准1", "标准2", "标准3"]
  }
]
`

const consistencyTemplate = `请分析以下需求集合，检查一致性问题：

需求列表：
{requirements}

请检查以下问题：
1. 逻辑矛盾：是否存在相互冲突的需求描述
2. 重复内容：是否有多个需求在描述同一功能
3. 依赖关系：哪些需求之间存在依赖关系
4. 完整性：基于常见软件模式，检查是否遗漏了重要功能

对于发现的问题，请按以下JSON格式输出：
[
  {
    "type": "问题类型(CONFLICT/DUPLICATE/DEPENDENCY/INCOMPLETE)",
    "description": "问题描述",
    "suggestion": "修改建议",
    "relatedRequirements": ["相关需求标题1", "相关需求标题2"]
  }
]
`

const completenessTemplate = `请分析以下需求的完整性：

需求标题：{title}
需求描述：{description}
需求类型：{type}

请从以下维度评估：
1. 需求描述是否清晰明确
2. 是否包含必要的业务规则
3. 是否考虑了边界情况
4. 是否包含验收标准
5. 技术可行性

输出格式：
{
  "score": 0.85,
  "missingElements": ["缺失元素1", "缺失元素2"],
  "suggestions": ["改进建议1", "改进建议2"],
  "summary": "总体评估摘要"
}
`

const chatTemplate = `你是一个资深的需求分析师，正在与客户进行需求访谈。

项目背景：
- 项目名称：{name}
- 项目描述：{description}
- 项目领域：{domain}

对话历史：
{history}

用户最新问题：{message}

请根据以下策略进行回复：
1. 保持专业友好的态度，用中文回复
2. 如果需求描述模糊，用5W1H法追问细节
3. 实时识别和总结关键业务术语和需求点
4. 提供专业的需求分析建议
5. 对于技术问题，给出合理的实现建议
6. 如果涉及多个需求，帮助梳理优先级和依赖关系

请开始你的回复：
`

const summaryTemplate = `请为以下需求分析对话生成一个简洁的摘要（不超过200字）：

对话内容：
{history}

请总结对话的主要议题、达成的共识和待解决的问题。
`

const chatAnalysisTemplate = `以下是项目的需求信息：
{requirements}
问题：{question}
`
